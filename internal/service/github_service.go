package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/resourceiq/devmatch/internal/domain"
	"github.com/resourceiq/devmatch/internal/port"
)

const (
	// prDescriptionLimit caps the DESCRIPTION section of a PR context.
	prDescriptionLimit = 1000

	// minCommitWords filters out noise commits ("wip", "fix") from the
	// COMMITS section.
	minCommitWords = 5

	// maxContextCommits bounds the COMMITS section.
	maxContextCommits = 30
)

var (
	htmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	wordTokenRe   = regexp.MustCompile(`\w+`)
)

// prVectorWriter is the slice of the vector store the GitHub service uses.
type prVectorWriter interface {
	UpsertPRVector(ctx context.Context, e *domain.PRVector) error
	SearchSimilarPRs(ctx context.Context, queryVector []float32, limit int, authorLogin string) ([]domain.SimilarPR, error)
}

// textEmbedder is the slice of the embedding service the sync services use.
type textEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, []int, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// GitHubService syncs pull request contexts into the vector store and
// searches them.
type GitHubService struct {
	github     port.GitHubProvider
	embeddings textEmbedder
	vectors    prVectorWriter
}

// NewGitHubService creates a GitHub sync/search service.
func NewGitHubService(github port.GitHubProvider, embeddings textEmbedder, vectors prVectorWriter) *GitHubService {
	return &GitHubService{github: github, embeddings: embeddings, vectors: vectors}
}

// BuildPRContext composes the multi-section plain-text context string used
// as the embedding unit for a pull request. Pure function of its input.
func BuildPRContext(pr *domain.PullRequest) string {
	cleanDescription := strings.TrimSpace(htmlCommentRe.ReplaceAllString(pr.Body, ""))
	if runes := []rune(cleanDescription); len(runes) > prDescriptionLimit {
		cleanDescription = string(runes[:prDescriptionLimit])
	}

	var b strings.Builder
	b.WriteString("PR_INTENT: " + pr.Title + "\n")
	b.WriteString("DESCRIPTION: " + cleanDescription + "\n")
	b.WriteString("LABELS: " + strings.Join(pr.Labels, ", ") + "\n")

	b.WriteString("\nFILE_CHANGES:\n")
	for _, f := range pr.Files {
		b.WriteString("- [" + strings.ToUpper(f.Status) + "] " + f.Filename + "\n")
	}

	b.WriteString("\nCOMMITS:\n")
	commits := 0
	for _, msg := range pr.CommitMessages {
		if commits >= maxContextCommits {
			break
		}
		if len(wordTokenRe.FindAllString(msg, -1)) <= minCommitWords {
			continue
		}
		firstLine := strings.SplitN(msg, "\n", 2)[0]
		b.WriteString("- " + firstLine + "\n")
		commits++
	}

	return b.String()
}

// SyncAuthorPRs fetches the author's closed PRs, builds contexts, embeds
// them, and upserts the resulting vectors.
func (s *GitHubService) SyncAuthorPRs(ctx context.Context, authorLogin string, maxPRs int) (*domain.SyncResult, error) {
	start := time.Now()

	members, err := s.github.OrgMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list org members: %w", err)
	}

	var author *domain.GitHubUser
	for i := range members {
		if members[i].Login == authorLogin {
			author = &members[i]
			break
		}
	}
	if author == nil {
		return nil, &port.DataError{Entity: authorLogin, Reason: "not a member of the organization"}
	}

	result := &domain.SyncResult{Status: domain.SyncCompleted, AuthorsSynced: []string{authorLogin}}
	s.syncAuthor(ctx, *author, maxPRs, result)

	if len(result.Errors) > 0 {
		result.Status = domain.SyncCompletedWithErrors
	}
	result.DurationSeconds = roundDuration(time.Since(start))
	return result, nil
}

// SyncAllAuthors syncs closed PRs for every organization member. Member-level
// failures are recorded and never abort the run.
func (s *GitHubService) SyncAllAuthors(ctx context.Context, maxPRsPerAuthor int) (*domain.SyncResult, error) {
	start := time.Now()

	members, err := s.github.OrgMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list org members: %w", err)
	}

	result := &domain.SyncResult{Status: domain.SyncCompleted}
	for _, member := range members {
		result.AuthorsSynced = append(result.AuthorsSynced, member.Login)
		s.syncAuthor(ctx, member, maxPRsPerAuthor, result)
	}

	if len(result.Errors) > 0 {
		result.Status = domain.SyncCompletedWithErrors
	}
	result.DurationSeconds = roundDuration(time.Since(start))
	return result, nil
}

func (s *GitHubService) syncAuthor(ctx context.Context, author domain.GitHubUser, maxPRs int, result *domain.SyncResult) {
	prs, err := s.github.ClosedPRsByAuthor(ctx, author, maxPRs)
	if err != nil {
		msg := fmt.Sprintf("error fetching PRs for %s: %v", author.Login, err)
		slog.Error("pr fetch failed", "author", author.Login, "error", err)
		result.Errors = append(result.Errors, msg)
		return
	}
	if len(prs) == 0 {
		slog.Info("no PRs to sync", "author", author.Login)
		return
	}

	contexts := make([]string, len(prs))
	for i := range prs {
		prs[i].Context = BuildPRContext(&prs[i])
		contexts[i] = prs[i].Context
	}

	vectors, indices, err := s.embeddings.EmbedTexts(ctx, contexts)
	if err != nil {
		msg := fmt.Sprintf("error embedding PRs for %s: %v", author.Login, err)
		slog.Error("pr embedding failed", "author", author.Login, "error", err)
		result.Errors = append(result.Errors, msg)
		return
	}
	if len(indices) < len(prs) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%d of %d PR contexts failed to embed for %s", len(prs)-len(indices), len(prs), author.Login))
	}

	for i, vector := range vectors {
		pr := prs[indices[i]]
		record := &domain.PRVector{
			PRID:          strconv.FormatInt(pr.ID, 10),
			PRNumber:      pr.Number,
			AuthorLogin:   pr.Author.Login,
			AuthorID:      pr.Author.ID,
			RepoName:      pr.RepoName,
			PRTitle:       pr.Title,
			PRURL:         pr.HTMLURL,
			PRDescription: pr.Body,
			Vector:        vector,
			Context:       pr.Context,
			Metadata: map[string]any{
				"changed_files": fileNames(pr.Files),
				"labels":        pr.Labels,
			},
		}
		if err := s.vectors.UpsertPRVector(ctx, record); err != nil {
			slog.Error("store pr vector failed", "pr", pr.Number, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("error storing PR %d: %v", pr.Number, err))
			continue
		}
		result.PRsSynced++
		result.EmbeddingsGenerated++
	}

	slog.Info("stored pr vectors", "author", author.Login, "count", result.PRsSynced)
}

// SearchSimilarPRs embeds a free-text query and returns the closest PR
// contexts, optionally restricted to one author.
func (s *GitHubService) SearchSimilarPRs(ctx context.Context, query string, limit int, authorLogin string) ([]domain.SimilarPR, error) {
	queryVector, err := s.embeddings.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.vectors.SearchSimilarPRs(ctx, queryVector, limit, authorLogin)
}

func fileNames(files []domain.PullRequestFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Filename
	}
	return names
}

func roundDuration(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 1000
}

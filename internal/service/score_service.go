package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/resourceiq/devmatch/internal/domain"
	"github.com/resourceiq/devmatch/internal/port"
)

// maxEvidencePRs is the number of contributing PRs returned per profile.
const maxEvidencePRs = 3

// profileLister is the slice of the store the scoring service reads.
type profileLister interface {
	ListDeveloperProfiles(ctx context.Context) ([]domain.DeveloperProfile, error)
}

// vectorReader is the slice of the vector store the scoring service reads.
type vectorReader interface {
	ListPRVectorsByAuthor(ctx context.Context, authorID int64, limit int) ([]domain.PRVector, error)
	ListIssueVectorsByAssignee(ctx context.Context, accountID string, limit int) ([]domain.IssueVector, error)
}

// queryEmbedder is the slice of the embedding service the scoring service uses.
type queryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ScoreService ranks developer profiles against a task description using
// their historical PR and issue embeddings.
type ScoreService struct {
	profiles   profileLister
	vectors    vectorReader
	embeddings queryEmbedder
	prWindow   int
}

// NewScoreService creates a scoring service. prWindow caps how many of a
// developer's most recent vectors contribute to each subscore.
func NewScoreService(profiles profileLister, vectors vectorReader, embeddings queryEmbedder, prWindow int) *ScoreService {
	return &ScoreService{profiles: profiles, vectors: vectors, embeddings: embeddings, prWindow: prWindow}
}

// BestFits ranks every developer profile against the task description and
// returns the top topN. The task is embedded exactly once. Each profile's
// GitHub subscore is the mean cosine similarity against its recent PR
// vectors scaled by 1000, the Jira subscore likewise over its issue vectors;
// a profile with no linked identity or no vectors scores zero but is still
// ranked. Per-profile failures are logged and the profile skipped.
func (s *ScoreService) BestFits(ctx context.Context, task string, topN int) ([]domain.ScoreProfile, error) {
	if task == "" {
		return nil, &port.ValidationError{Field: "task_description", Reason: "must not be empty"}
	}

	taskVector, err := s.embeddings.EmbedQuery(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("embed task: %w", err)
	}

	profiles, err := s.profiles.ListDeveloperProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	scored := make([]domain.ScoreProfile, 0, len(profiles))
	for _, profile := range profiles {
		sp, err := s.scoreProfile(ctx, taskVector, profile)
		if err != nil {
			slog.Error("profile scoring failed", "profile", profile.JiraAccountID, "error", err)
			continue
		}
		scored = append(scored, *sp)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].TotalScore > scored[j].TotalScore
	})
	if topN > 0 && len(scored) > topN {
		scored = scored[:topN]
	}
	return scored, nil
}

func (s *ScoreService) scoreProfile(ctx context.Context, taskVector []float32, profile domain.DeveloperProfile) (*domain.ScoreProfile, error) {
	sp := &domain.ScoreProfile{
		UserID:     profile.UserID,
		UserName:   profile.JiraDisplayName,
		PRInfo:     []domain.PRScoreInfo{},
		IssueLinks: []string{},
	}
	if sp.UserName == "" {
		sp.UserName = profile.GitHubLogin
	}

	if profile.GitHubID != 0 {
		prVectors, err := s.vectors.ListPRVectorsByAuthor(ctx, profile.GitHubID, s.prWindow)
		if err != nil {
			return nil, fmt.Errorf("load pr vectors: %w", err)
		}
		sp.GitHubPRScore, sp.PRInfo = scorePRs(taskVector, prVectors)
	}

	if profile.JiraAccountID != "" {
		issueVectors, err := s.vectors.ListIssueVectorsByAssignee(ctx, profile.JiraAccountID, s.prWindow)
		if err != nil {
			return nil, fmt.Errorf("load issue vectors: %w", err)
		}
		sp.JiraIssueScore, sp.IssueLinks = scoreIssues(taskVector, issueVectors)
	}

	sp.TotalScore = round2(sp.GitHubPRScore + sp.JiraIssueScore)
	return sp, nil
}

// scorePRs returns the mean cosine similarity scaled by 1000 plus the
// closest PRs as evidence, each annotated with its similarity percentage.
func scorePRs(taskVector []float32, vectors []domain.PRVector) (float64, []domain.PRScoreInfo) {
	if len(vectors) == 0 {
		return 0, []domain.PRScoreInfo{}
	}

	type ranked struct {
		similarity float64
		pr         *domain.PRVector
	}
	rankedPRs := make([]ranked, len(vectors))
	sum := 0.0
	for i := range vectors {
		sim := cosineSimilarity(taskVector, vectors[i].Vector)
		sum += sim
		rankedPRs[i] = ranked{similarity: sim, pr: &vectors[i]}
	}

	sort.SliceStable(rankedPRs, func(i, j int) bool {
		return rankedPRs[i].similarity > rankedPRs[j].similarity
	})

	evidence := make([]domain.PRScoreInfo, 0, maxEvidencePRs)
	for _, r := range rankedPRs {
		if len(evidence) >= maxEvidencePRs {
			break
		}
		evidence = append(evidence, domain.PRScoreInfo{
			PRID:            r.pr.PRID,
			PRTitle:         r.pr.PRTitle,
			PRDescription:   r.pr.PRDescription,
			PRURL:           r.pr.PRURL,
			MatchPercentage: round2(r.similarity * 100),
		})
	}

	return round2(sum / float64(len(vectors)) * 1000), evidence
}

// scoreIssues returns the mean cosine similarity scaled by 1000 plus links to
// the closest issues.
func scoreIssues(taskVector []float32, vectors []domain.IssueVector) (float64, []string) {
	if len(vectors) == 0 {
		return 0, []string{}
	}

	type ranked struct {
		similarity float64
		issue      *domain.IssueVector
	}
	rankedIssues := make([]ranked, len(vectors))
	sum := 0.0
	for i := range vectors {
		sim := cosineSimilarity(taskVector, vectors[i].Vector)
		sum += sim
		rankedIssues[i] = ranked{similarity: sim, issue: &vectors[i]}
	}

	sort.SliceStable(rankedIssues, func(i, j int) bool {
		return rankedIssues[i].similarity > rankedIssues[j].similarity
	})

	links := make([]string, 0, maxEvidencePRs)
	for _, r := range rankedIssues {
		if len(links) >= maxEvidencePRs {
			break
		}
		link := r.issue.IssueURL
		if link == "" {
			link = r.issue.IssueKey
		}
		links = append(links, link)
	}

	return round2(sum / float64(len(vectors)) * 1000), links
}

// cosineSimilarity accumulates in float64 for stability. A zero-norm vector
// on either side yields 0.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edtriage/backend/internal/literature"
	"github.com/edtriage/backend/internal/llm"
	"github.com/edtriage/backend/internal/models"
	"github.com/edtriage/backend/internal/prompt"
	"github.com/edtriage/backend/internal/rag"
	"github.com/edtriage/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	triageHeader    = "🩺 **Triage Assessment**"
	specialtyFormat = "🔎 Suggested Specialty: **%s**"
)

type LiteratureSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]literature.Document, error)
}

type ContextBuilder interface {
	BuildContext(ctx context.Context, documents []literature.Document, query string) ([]rag.ScoredChunk, error)
}

type Generator interface {
	Generate(ctx context.Context, req llm.ModelRequest) llm.ModelResponse
}

type TriageConfig struct {
	MaxResults          int
	Temperature         float64
	ClassifyTemperature float64
	PrimaryTimeout      time.Duration
}

// TriageResult is the formatted output plus the counters recorded for audit.
type TriageResult struct {
	Text       string
	Tier       llm.Tier
	BothFailed bool
	Documents  int
	Chunks     int
	Sources    []string
}

type ClassifyResult struct {
	Text       string
	Specialty  string
	Matched    bool
	Tier       llm.Tier
	BothFailed bool
}

// TriageService runs retrieve, index, assemble and generate in order.
type TriageService struct {
	literature LiteratureSearcher
	context    ContextBuilder
	generator  Generator
	config     TriageConfig
	logger     *logrus.Logger
}

func NewTriageService(
	literature LiteratureSearcher,
	builder ContextBuilder,
	generator Generator,
	config TriageConfig,
	logger *logrus.Logger,
) *TriageService {
	return &TriageService{
		literature: literature,
		context:    builder,
		generator:  generator,
		config:     config,
		logger:     logger,
	}
}

// Triage produces the triage assessment for patient. Failures inside the
// pipeline are folded into the returned text; the only error is the
// cancellation of ctx.
func (s *TriageService) Triage(ctx context.Context, patient models.PatientCase) (*TriageResult, error) {
	log := utils.ComponentLogger(ctx, s.logger, "orchestrator")
	query := patient.SearchQuery()

	log.WithField("state", "retrieve_literature").Debug("Triage state")
	documents, err := s.literature.Search(ctx, query, s.config.MaxResults)
	if err != nil {
		return nil, err
	}

	var chunks []prompt.ContextChunk
	if len(documents) > 0 {
		log.WithField("state", "build_context").Debug("Triage state")
		scored, err := s.context.BuildContext(ctx, documents, query)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.WithError(err).Warn("Context building failed, continuing without literature")
		}
		for _, sc := range scored {
			chunks = append(chunks, prompt.ContextChunk{Text: sc.Chunk.Text, SourceID: sc.Chunk.SourceID})
		}
	}

	log.WithField("state", "assemble_prompt").Debug("Triage state")
	userPrompt := prompt.Assemble(patient, chunks)

	log.WithField("state", "generate").Debug("Triage state")
	resp := s.generator.Generate(ctx, llm.ModelRequest{
		SystemPrompt:   prompt.TriageSystemPrompt,
		UserPrompt:     userPrompt,
		Temperature:    s.config.Temperature,
		PrimaryTimeout: s.config.PrimaryTimeout,
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sources := prompt.SourceIDs(chunks)
	log.WithFields(logrus.Fields{
		"state":       "done",
		"tier":        resp.Tier,
		"both_failed": resp.BothFailed,
		"documents":   len(documents),
		"chunks":      len(chunks),
	}).Info("Triage completed")

	return &TriageResult{
		Text:       formatTriage(resp.Text, sources),
		Tier:       resp.Tier,
		BothFailed: resp.BothFailed,
		Documents:  len(documents),
		Chunks:     len(chunks),
		Sources:    sources,
	}, nil
}

// Classify suggests one specialty from models.Specialties for the symptoms.
// No literature is retrieved.
func (s *TriageService) Classify(ctx context.Context, symptoms string) (*ClassifyResult, error) {
	log := utils.ComponentLogger(ctx, s.logger, "orchestrator")

	resp := s.generator.Generate(ctx, llm.ModelRequest{
		SystemPrompt:   prompt.ClassifySystemPrompt,
		UserPrompt:     prompt.AssembleClassification(symptoms, models.Specialties),
		Temperature:    s.config.ClassifyTemperature,
		PrimaryTimeout: s.config.PrimaryTimeout,
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &ClassifyResult{Tier: resp.Tier, BothFailed: resp.BothFailed}
	if resp.BothFailed {
		result.Text = resp.Text
		return result, nil
	}

	specialty, ok := models.NormalizeSpecialty(resp.Text)
	if ok {
		result.Specialty = specialty
		result.Matched = true
		result.Text = formatSpecialty(specialty)
	} else {
		log.WithField("completion", resp.Text).Warn("Completion did not name a known specialty")
		result.Text = formatSpecialty(strings.TrimSpace(resp.Text))
	}

	log.WithFields(logrus.Fields{
		"tier":      resp.Tier,
		"specialty": result.Specialty,
		"matched":   result.Matched,
	}).Info("Classification completed")

	return result, nil
}

func formatTriage(text string, sources []string) string {
	footer := prompt.NoLiteratureMarker
	if len(sources) > 0 {
		footer = "📚 PubMed sources: PMID " + strings.Join(sources, ", PMID ")
	}
	return triageHeader + "\n\n" + text + "\n\n---\n" + footer
}

func formatSpecialty(name string) string {
	return fmt.Sprintf(specialtyFormat, name)
}

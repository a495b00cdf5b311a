package llm

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/edtriage/backend/pkg/errors"
	"github.com/edtriage/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	EmptyLocalResponse  = "❌ Empty response from local model"
	bothFailedPrefix    = "❌ Both cloud and local models failed: "
	cancelledDiagnostic = "❌ Request cancelled before a model responded"
)

// Gateway tries the primary provider and falls back to the secondary exactly
// once. A nil primary sends every request to the secondary.
type Gateway struct {
	primary   Provider
	secondary Provider
	logger    *logrus.Logger
}

func NewGateway(primary, secondary Provider, logger *logrus.Logger) *Gateway {
	return &Gateway{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

// Generate never fails. Every outcome, including both tiers failing, is
// encoded in the returned response.
func (g *Gateway) Generate(ctx context.Context, req ModelRequest) ModelResponse {
	log := utils.ComponentLogger(ctx, g.logger, "gateway")

	if g.primary != nil {
		text, err := g.callPrimary(ctx, req)
		if err == nil {
			log.WithField("tier", TierPrimary).Debug("Primary model answered")
			return ModelResponse{Text: text, Tier: TierPrimary}
		}

		if ctx.Err() != nil {
			return ModelResponse{Text: cancelledDiagnostic, Tier: TierNone, BothFailed: true}
		}

		log.WithFields(logrus.Fields{
			"event":      "fallback",
			"from":       g.primary.Name(),
			"to":         g.secondary.Name(),
			"error_type": errorType(err),
			"error":      err.Error(),
		}).Warn("Cloud model failed, falling back to local model")
	} else {
		log.WithField("to", g.secondary.Name()).Debug("Primary model disabled, using local model")
	}

	text, err := g.secondary.Complete(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return ModelResponse{Text: cancelledDiagnostic, Tier: TierNone, BothFailed: true}
		}
		log.WithFields(logrus.Fields{
			"event":      "both_failed",
			"error_type": errorType(err),
			"error":      err.Error(),
		}).Error("Both model tiers failed")
		return ModelResponse{Text: bothFailedPrefix + describe(err), Tier: TierNone, BothFailed: true}
	}

	if text == "" {
		log.WithField("event", "both_failed").Error("Local model returned no text")
		return ModelResponse{Text: EmptyLocalResponse, Tier: TierSecondary, BothFailed: true}
	}

	return ModelResponse{Text: text, Tier: TierSecondary}
}

func (g *Gateway) callPrimary(ctx context.Context, req ModelRequest) (string, error) {
	if req.PrimaryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.PrimaryTimeout)
		defer cancel()
	}

	text, err := g.primary.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !apperrors.IsType(err, apperrors.ErrorTypeProviderTimeout) {
			return "", apperrors.NewProviderTimeout(g.primary.Name(), err)
		}
		return "", err
	}
	if text == "" {
		return "", apperrors.NewInvalidResponse(g.primary.Name(), "empty completion")
	}
	return text, nil
}

func errorType(err error) apperrors.ErrorType {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return apperrors.ErrorTypeProviderError
}

// describe renders err without the error type code.
func describe(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Err)
		}
		return appErr.Message
	}
	return err.Error()
}

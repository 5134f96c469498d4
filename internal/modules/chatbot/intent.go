package chatbot

import (
	"context"

	"github.com/acaduss/acaduss-backend/internal/observability"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

// IntentClassifier labels a user message with an Intent.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) (Intent, error)
}

// FallbackClassifier asks Primary first and answers with Fallback when
// Primary fails. Fallback is expected to be total.
type FallbackClassifier struct {
	Primary  IntentClassifier
	Fallback IntentClassifier
	Log      *logger.Logger
}

func NewFallbackClassifier(log *logger.Logger, primary, fallback IntentClassifier) *FallbackClassifier {
	return &FallbackClassifier{Primary: primary, Fallback: fallback, Log: log}
}

func (f *FallbackClassifier) Classify(ctx context.Context, text string) (Intent, error) {
	if f.Primary != nil {
		intent, err := f.Primary.Classify(ctx, text)
		if err == nil {
			observability.Current().IncIntent(string(intent.Type), "ai")
			return intent, nil
		}
		if f.Log != nil {
			f.Log.WithContext(ctx).Warn("intent classification failed, using rules", "error", err)
		}
	}
	fallback := f.Fallback
	if fallback == nil {
		fallback = RuleClassifier{}
	}
	intent, err := fallback.Classify(ctx, text)
	if err == nil {
		observability.Current().IncIntent(string(intent.Type), "rules")
	}
	return intent, err
}

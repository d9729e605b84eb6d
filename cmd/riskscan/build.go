package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crimson-sun/riskscan/internal/config"
	"github.com/crimson-sun/riskscan/internal/engine"
	"github.com/crimson-sun/riskscan/internal/engine/classifier"
	"github.com/crimson-sun/riskscan/internal/engine/normalize"
	"github.com/crimson-sun/riskscan/internal/engine/schema"
	"github.com/crimson-sun/riskscan/internal/health"
	"github.com/crimson-sun/riskscan/internal/model"
	"github.com/crimson-sun/riskscan/internal/output"
	"github.com/crimson-sun/riskscan/internal/output/async"
	"github.com/crimson-sun/riskscan/internal/output/file"
	"github.com/crimson-sun/riskscan/internal/output/multi"
	"github.com/crimson-sun/riskscan/internal/output/webhook"
)

// buildSchema loads the override file when one is configured.
func buildSchema(c config.EngineConfig) (*schema.Schema, error) {
	if c.SchemaPath == "" {
		return schema.Default(), nil
	}
	s, err := schema.Load(c.SchemaPath)
	if err != nil {
		return nil, err
	}
	slog.Info("schema loaded", "path", c.SchemaPath, "features", s.NumFeatures())
	return s, nil
}

// buildClassifier returns the configured classifier wrapped in its timeout.
func buildClassifier(c config.ClassifierConfig, s *schema.Schema) (classifier.Classifier, error) {
	var (
		inner classifier.Classifier
		err   error
	)
	switch c.Kind {
	case "remote":
		var opts []classifier.RemoteOption
		if c.Token != "" {
			opts = append(opts, classifier.WithToken(c.Token))
		}
		inner = classifier.NewRemote(c.URL, s.Features(), opts...)
		slog.Info("classifier ready", "kind", "remote", "url", c.URL)
	case "onnx":
		opts := []classifier.ONNXOption{classifier.WithOutputName(c.OutputName)}
		if c.LibraryPath != "" {
			opts = append(opts, classifier.WithLibraryPath(c.LibraryPath))
		}
		inner, err = classifier.NewONNX(c.ModelPath, s.NumFeatures(), opts...)
		if err != nil {
			return nil, err
		}
		slog.Info("classifier ready", "kind", "onnx", "model", c.ModelPath)
	default:
		return nil, fmt.Errorf("unknown classifier %q", c.Kind)
	}
	return classifier.WithTimeout(inner, c.Timeout), nil
}

// buildEngine wires schema, normalizer and classifier from configuration.
// The classifier is returned too so callers can probe it; Engine.Close
// releases it.
func buildEngine(c config.Config) (*engine.Engine, classifier.Classifier, error) {
	s, err := buildSchema(c.Engine)
	if err != nil {
		return nil, nil, err
	}
	cls, err := buildClassifier(c.Classifier, s)
	if err != nil {
		return nil, nil, err
	}
	n := normalize.New(s,
		normalize.WithWorkers(c.Engine.Workers),
		normalize.WithStrictTimestamps(c.Engine.StrictTimestamps),
	)
	return engine.New(n, cls), cls, nil
}

// buildSinks assembles the optional file and webhook report sinks. With
// background set, each sink is wrapped so a slow destination never holds up
// the caller. Returns nil when no sink is configured.
func buildSinks(c config.OutputConfig, background bool, extra ...output.Output) (output.Output, error) {
	detail := output.ParseDetail(c.Detail)
	outs := append([]output.Output(nil), extra...)

	wrap := func(o output.Output) output.Output {
		if !background {
			return o
		}
		return async.New(o, async.WithDropOnFull())
	}

	if c.File != "" {
		var opts []file.Option
		if c.FileMaxSize != "" {
			n, err := file.ParseSize(c.FileMaxSize)
			if err != nil {
				return nil, err
			}
			opts = append(opts, file.WithMaxSize(n))
		}
		f, err := file.New(c.File, detail, opts...)
		if err != nil {
			return nil, err
		}
		outs = append(outs, wrap(f))
	}
	if c.WebhookURL != "" {
		wopts := []webhook.Option{webhook.WithDetail(detail)}
		if background {
			// One report per request; deliver without waiting for a batch.
			wopts = append(wopts, webhook.WithBatchSize(1))
		}
		outs = append(outs, wrap(webhook.New(c.WebhookURL, wopts...)))
	}

	switch len(outs) {
	case 0:
		return nil, nil
	case 1:
		return outs[0], nil
	default:
		return multi.New(outs...), nil
	}
}

// classifierCheck probes the classifier with an all-zero vector.
func classifierCheck(cls classifier.Classifier, numFeatures int) health.Checker {
	return health.FromError(func(ctx context.Context) error {
		probs, err := cls.ClassifyBatch(ctx, []model.FeatureVector{make(model.FeatureVector, numFeatures)})
		if err != nil {
			return err
		}
		return classifier.Validate(probs, 1)
	})
}

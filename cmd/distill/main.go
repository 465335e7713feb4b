// distill runs one simulated round of key distillation end to end: draw raw
// correlated pairs from the channel model, sift, estimate the error rate,
// reconcile, amplify, and report what survived. Optionally persists the
// packed key and the public audit transcript.
package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/photonkey/distill/distill"
	"github.com/photonkey/distill/distill/source"
	"github.com/photonkey/distill/internal/log"
	flag "github.com/spf13/pflag"
)

var (
	configPath = flag.String("config", "", "Path to a TOML configuration file.")
	pairs      = flag.Int("pairs", 0, "Raw pairs to draw, overriding the config.")
	flipProb   = flag.Float64("flip-prob", -1, "Channel error rate, overriding the config.")
	keyOut     = flag.String("key-out", "", "File to write the packed key bits to.")
	auditOut   = flag.String("audit-out", "", "File to write the audit transcript to.")
	logLevel   = flag.String("log-level", "", "Log level, overriding the config.")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "distill: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *pairs > 0 {
		cfg.Source.Pairs = *pairs
	}
	if *flipProb >= 0 {
		cfg.Source.FlipProb = *flipProb
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return err
	}

	backend, err := log.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
	if err != nil {
		return err
	}
	logger := backend.GetLogger("distill")

	raw, err := source.NewSimulated(cfg.Source.Pairs, source.SimOpts{
		FlipProb: cfg.Source.FlipProb,
		DropProb: cfg.Source.DropProb,
		Rand:     rand.New(rand.NewSource(cfg.Source.Seed)),
	})
	if err != nil {
		return err
	}

	p, err := distill.New(distill.Opts{
		SampleFraction: cfg.Pipeline.SampleFraction,
		Alpha:          cfg.Pipeline.Alpha,
		QberThreshold:  cfg.Pipeline.QberThreshold,
		FailureProb:    cfg.Pipeline.FailureProb,
		MaxPasses:      cfg.Pipeline.MaxPasses,
		WinnowIters:    cfg.Pipeline.WinnowIters,
		Rand:           rand.New(rand.NewSource(cfg.Pipeline.Seed)),
		Log:            logger,
	})
	if err != nil {
		return err
	}

	res, err := p.Run(raw)
	switch {
	case errors.Is(err, distill.ErrKeyExhausted):
		logger.Warning("no secure key material this round; request more raw pairs")
		return nil
	case err != nil:
		return err
	}

	s := res.Stats
	fmt.Printf("sifted=%d sample=%d qber=%.4f (upper %.4f) leaked=%d passes=%d key=%d bits\n",
		s.SiftedBits, s.SampleSize, s.QberPoint, s.QberUpper, s.LeakedBits, s.Passes, s.FinalLength)
	fmt.Printf("fingerprint=%s\n", res.Key.Fingerprint())

	if *keyOut != "" {
		if err := res.Key.WriteFile(*keyOut); err != nil {
			return err
		}
		logger.Infof("wrote %d key bytes to %s", len(res.Key.Bytes()), *keyOut)
	}
	if *auditOut != "" {
		if err := res.Audit().WriteFile(*auditOut); err != nil {
			return err
		}
		logger.Infof("wrote audit transcript to %s", *auditOut)
	}
	return nil
}

package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/amber/internal/normalize"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RulesHolder serves the current normalization ruleset. The ruleset is read
// from ingest.yml and reloaded when the file changes; a reload that fails to
// decode or validate is ignored and the previous ruleset stays active.
type RulesHolder struct {
	current atomic.Value // holds normalize.Ruleset
}

func NewRulesHolder(cfg Config, log *zap.Logger) (*RulesHolder, error) {
	log = log.Named("config.rules")
	v := viper.New()

	if cfg.RulesPath != "" {
		v.SetConfigFile(cfg.RulesPath)
	} else {
		v.SetConfigName("ingest")
		v.SetConfigType("yml")
		v.AddConfigPath("/var/lib/amber/config") // Volume-mounted config
		v.AddConfigPath("/etc/amber")            // System config
		v.AddConfigPath(".")                     // Current directory (dev mode)
	}

	v.SetEnvPrefix("AMBER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &RulesHolder{}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		log.Info("ingest rules file not found, using built-in defaults")
		holder.current.Store(normalize.DefaultRuleset())
		return holder, nil
	}

	rules, err := decodeRules(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(rules)
	log.Info("ingest rules loaded", zap.String("file", v.ConfigFileUsed()))

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeRules(v)
		if err != nil {
			log.Warn("invalid ingest rules ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("ingest rules reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticRules returns a holder that always serves rules.
func NewStaticRules(rules normalize.Ruleset) *RulesHolder {
	holder := &RulesHolder{}
	holder.current.Store(rules)
	return holder
}

// Get returns an immutable snapshot of the current ruleset.
func (h *RulesHolder) Get() normalize.Ruleset {
	return h.current.Load().(normalize.Ruleset)
}

func decodeRules(v *viper.Viper) (normalize.Ruleset, error) {
	var override normalize.Ruleset
	if err := v.UnmarshalKey("ingest", &override); err != nil {
		return normalize.Ruleset{}, err
	}
	rules := normalize.DefaultRuleset().Merge(override)
	if err := rules.Validate(); err != nil {
		return normalize.Ruleset{}, err
	}
	return rules, nil
}

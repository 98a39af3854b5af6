package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ContingentDefaults are the compiled-in fallback limits used whenever the
// period's stored config document does not carry a value. Stored values
// always win; these only fill the gaps.
type ContingentDefaults struct {
	PerUserMonthlyLimit int64 `mapstructure:"perUserMonthlyLimit"`
	GlobalMonthlyLimit  int64 `mapstructure:"globalMonthlyLimit"`
	GlobalBuffer        int64 `mapstructure:"globalBuffer"`
}

func DefaultContingent() ContingentDefaults {
	return ContingentDefaults{
		PerUserMonthlyLimit: 10_000,
		GlobalMonthlyLimit:  500_000,
		GlobalBuffer:        5_000,
	}
}

// ContingentHolder serves the current fallback limits and hot-reloads them
// from an optional contingent.yml. Reloading changes fallbacks for periods
// whose config has not been created yet; existing period documents are
// untouched.
type ContingentHolder struct {
	current atomic.Value // holds ContingentDefaults
}

func NewContingentHolder() (*ContingentHolder, error) {
	v := viper.New()

	v.SetConfigName("contingent")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/linguameter")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LINGUAMETER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultContingent()
		v.SetDefault("contingent.perUserMonthlyLimit", defaults.PerUserMonthlyLimit)
		v.SetDefault("contingent.globalMonthlyLimit", defaults.GlobalMonthlyLimit)
		v.SetDefault("contingent.globalBuffer", defaults.GlobalBuffer)
	}

	var cfg ContingentDefaults
	if err := v.UnmarshalKey("contingent", &cfg); err != nil {
		return nil, err
	}
	if err := validateContingent(cfg); err != nil {
		return nil, err
	}

	holder := &ContingentHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ContingentDefaults
		if err := v.UnmarshalKey("contingent", &updated); err != nil {
			log.Printf("[contingent-config] reload failed: %v", err)
			return
		}
		if err := validateContingent(updated); err != nil {
			log.Printf("[contingent-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[contingent-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *ContingentHolder) Get() ContingentDefaults {
	return h.current.Load().(ContingentDefaults)
}

// validateContingent rejects only nonsensical shapes. Zero limits and
// negative buffers are legal; they just make the quota more restrictive.
func validateContingent(cfg ContingentDefaults) error {
	if cfg.PerUserMonthlyLimit < 0 {
		return errors.New("contingent: perUserMonthlyLimit must not be negative")
	}
	if cfg.GlobalMonthlyLimit < 0 {
		return errors.New("contingent: globalMonthlyLimit must not be negative")
	}
	return nil
}

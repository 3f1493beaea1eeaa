package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// StoreSettings are shop-facing knobs that can change without a restart.
type StoreSettings struct {
	ShopName         string        `mapstructure:"shopName"`
	NotifyEmail      string        `mapstructure:"notifyEmail"`
	Currency         string        `mapstructure:"currency"`
	HomepageTTL      time.Duration `mapstructure:"homepageTTL"`
	FeaturedLimit    int           `mapstructure:"featuredLimit"`
	OrderNotify      bool          `mapstructure:"orderNotify"`
	PublicRatePerMin int           `mapstructure:"publicRatePerMinute"`
	PublicRateBurst  int           `mapstructure:"publicRateBurst"`
	OnRequestLabel   string        `mapstructure:"onRequestLabel"`
}

func DefaultStoreSettings() StoreSettings {
	return StoreSettings{
		ShopName:         "Confeitaria",
		NotifyEmail:      "",
		Currency:         "BRL",
		HomepageTTL:      time.Hour,
		FeaturedLimit:    8,
		OrderNotify:      true,
		PublicRatePerMin: 30,
		PublicRateBurst:  10,
		OnRequestLabel:   "Sob consulta",
	}
}

// NotifyRecipients splits NotifyEmail on commas.
func (s StoreSettings) NotifyRecipients() []string {
	return parseList(s.NotifyEmail)
}

type StoreSettingsHolder struct {
	current atomic.Value // holds StoreSettings
}

// NewStoreSettingsHolder reads storefront.yml and keeps it fresh while the
// process runs. A missing file falls back to defaults.
func NewStoreSettingsHolder(cfg Config) (*StoreSettingsHolder, error) {
	v := viper.New()

	if cfg.SettingsConfigPath != "" {
		v.SetConfigFile(cfg.SettingsConfigPath)
	} else {
		v.SetConfigName("storefront")
		v.SetConfigType("yml")
		v.AddConfigPath("/var/lib/confeitaria/config")
		v.AddConfigPath("/etc/confeitaria")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultStoreSettings()
	v.SetDefault("store.shopName", defaults.ShopName)
	v.SetDefault("store.notifyEmail", defaults.NotifyEmail)
	v.SetDefault("store.currency", defaults.Currency)
	v.SetDefault("store.homepageTTL", defaults.HomepageTTL)
	v.SetDefault("store.featuredLimit", defaults.FeaturedLimit)
	v.SetDefault("store.orderNotify", defaults.OrderNotify)
	v.SetDefault("store.publicRatePerMinute", defaults.PublicRatePerMin)
	v.SetDefault("store.publicRateBurst", defaults.PublicRateBurst)
	v.SetDefault("store.onRequestLabel", defaults.OnRequestLabel)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	settings, err := decodeStoreSettings(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticStoreSettings(settings)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeStoreSettings(v)
		if err != nil {
			log.Printf("[store-settings] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[store-settings] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticStoreSettings returns a holder that never reloads.
func NewStaticStoreSettings(s StoreSettings) *StoreSettingsHolder {
	holder := &StoreSettingsHolder{}
	holder.current.Store(s)
	return holder
}

func (h *StoreSettingsHolder) Get() StoreSettings {
	return h.current.Load().(StoreSettings)
}

func decodeStoreSettings(v *viper.Viper) (StoreSettings, error) {
	var s StoreSettings
	if err := v.UnmarshalKey("store", &s); err != nil {
		return StoreSettings{}, err
	}
	if err := validateStoreSettings(s); err != nil {
		return StoreSettings{}, err
	}
	return s, nil
}

func validateStoreSettings(s StoreSettings) error {
	if strings.TrimSpace(s.ShopName) == "" {
		return errors.New("store.shopName cannot be empty")
	}
	if s.HomepageTTL < 0 {
		return errors.New("store.homepageTTL cannot be negative")
	}
	if s.FeaturedLimit < 0 {
		return errors.New("store.featuredLimit cannot be negative")
	}
	if s.PublicRatePerMin < 0 || s.PublicRateBurst < 0 {
		return errors.New("store.publicRate values cannot be negative")
	}
	return nil
}

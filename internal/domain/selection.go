package domain

import (
	"fmt"
	"net/url"
	"time"
)

// UnknownConfigurationID stands in for a configuration the backend sent
// without an id.
const UnknownConfigurationID = "unknown-config-id"

// IsSecureURL reports whether s is an absolute https URL with a host.
func IsSecureURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme == "https" && u.Host != ""
}

// BuildSelectedConfigurations turns partner configurations into the write
// model of a 3D product. Only color configurations contribute; each of their
// options with an id becomes a selected option whose id is
// "<optionId>-<unix millis of now>" and whose images hold imageURL when it is
// a secure URL. Configurations left without selected options are dropped.
func BuildSelectedConfigurations(configs []Configuration, imageURL string, now time.Time) []ConfigurationSelection {
	images := func() []string {
		if IsSecureURL(imageURL) {
			return []string{imageURL}
		}
		return []string{}
	}
	stamp := now.UnixMilli()

	out := make([]ConfigurationSelection, 0, len(configs))
	for _, cfg := range configs {
		if !cfg.IsColor() || len(cfg.Options) == 0 {
			continue
		}

		selected := make([]SelectedOption, 0, len(cfg.Options))
		for _, opt := range cfg.Options {
			id := opt.OptionID.ID
			if id == "" {
				continue
			}
			selected = append(selected, SelectedOption{
				ID:       fmt.Sprintf("%s-%d", id, stamp),
				OptionID: id,
				Images:   images(),
			})
		}
		if len(selected) == 0 {
			continue
		}

		configID := cfg.ConfigurationID.ID
		if configID == "" {
			configID = UnknownConfigurationID
		}
		out = append(out, ConfigurationSelection{ConfigurationID: configID, SelectedOptions: selected})
	}
	return out
}

// AttachImage appends imageURL to the images of every selected option and
// returns how many options were updated. An empty imageURL changes nothing.
func AttachImage(imageURL string, configs []ConfigurationSelection) int {
	if imageURL == "" {
		return 0
	}
	n := 0
	for i := range configs {
		opts := configs[i].SelectedOptions
		for j := range opts {
			opts[j].Images = append(opts[j].Images, imageURL)
			n++
		}
	}
	return n
}

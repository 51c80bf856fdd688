package domain

// DefaultColorName is used for color options the backend left unnamed.
const DefaultColorName = "Unnamed Color"

// ColorSelection is a color offered by a partner, unique per OptionID.
type ColorSelection struct {
	OptionID string `json:"optionId"`
	Color    string `json:"color"`
}

// ColorOption is a display-ready color.
type ColorOption struct {
	OptionID string   `json:"optionId"`
	Name     string   `json:"name"`
	Images   []string `json:"images"`
}

// ExtractColorSelections flattens the options of every configuration into
// one list, keeping the first occurrence of each option id. Options without
// an id are skipped and unnamed options get DefaultColorName.
func ExtractColorSelections(configs []Configuration) []ColorSelection {
	seen := make(map[string]struct{})
	out := make([]ColorSelection, 0)
	for _, cfg := range configs {
		for _, opt := range cfg.Options {
			id := opt.OptionID.ID
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}

			name := opt.OptionID.Name
			if name == "" {
				name = DefaultColorName
			}
			out = append(out, ColorSelection{OptionID: id, Color: name})
		}
	}
	return out
}

// ToColorOptions maps selections to display-ready colors.
func ToColorOptions(selections []ColorSelection) []ColorOption {
	out := make([]ColorOption, 0, len(selections))
	for _, s := range selections {
		name := s.Color
		if name == "" {
			name = DefaultColorName
		}
		out = append(out, ColorOption{OptionID: s.OptionID, Name: name, Images: []string{}})
	}
	return out
}

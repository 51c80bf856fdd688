package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Partner is a catalog partner (a company selling configurable products).
type Partner struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Ref is a backend document reference. The backend sends either the bare id
// or the populated document, depending on the endpoint.
type Ref struct {
	ID     string   `json:"_id,omitempty"`
	Name   string   `json:"name,omitempty"`
	Images []string `json:"images,omitempty"`
}

// UnmarshalJSON accepts a string id, a populated object, or null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}

	type plain Ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode reference: %w", err)
	}
	*r = Ref(p)
	return nil
}

// MarshalJSON writes a bare id unless the reference is populated.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Name == "" && len(r.Images) == 0 {
		return json.Marshal(r.ID)
	}
	type plain Ref
	return json.Marshal(plain(r))
}

// ActiveFlag is the product's activeInactive field. The backend and older
// clients send it either as a boolean or as "active"/"inactive".
type ActiveFlag bool

// UnmarshalJSON accepts true/false, "active"/"inactive" and "true"/"false".
func (a *ActiveFlag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*a = ActiveFlag(b)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("activeInactive: expected bool or string, got %s", data)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "true":
		*a = true
	case "inactive", "false", "":
		*a = false
	default:
		return fmt.Errorf("activeInactive: unknown value %q", s)
	}
	return nil
}

// Product is a catalog product as returned by the backend.
type Product struct {
	ID             string          `json:"_id,omitempty"`
	ProductCode    string          `json:"productCode,omitempty"`
	ProductName    string          `json:"productName"`
	ProductType    string          `json:"productType,omitempty"`
	ProductPrice   float64         `json:"productPrice"`
	Description    string          `json:"description,omitempty"`
	Brand          string          `json:"brand,omitempty"`
	ActiveInactive ActiveFlag      `json:"activeInactive"`
	PartnerID      Ref             `json:"partnerId"`
	Configurations []Configuration `json:"configurations,omitempty"`
}

// ConfigurationDetails describes the kind of field a configuration drives.
type ConfigurationDetails struct {
	FieldType string `json:"fieldType"`
	FieldName string `json:"fieldName"`
}

// FieldTypeColor marks configurations whose options are colors.
const FieldTypeColor = "color"

// Configuration is a partner configuration record: a configurable field and
// the options a product may pick from.
type Configuration struct {
	ID              string               `json:"_id,omitempty"`
	ConfigurationID Ref                  `json:"configurationId"`
	Details         ConfigurationDetails `json:"configurationDetails"`
	Options         []Option             `json:"options"`
	SelectedOptions []SelectedOption     `json:"selectedOptions,omitempty"`
}

// IsColor reports whether the configuration drives a color field.
func (c Configuration) IsColor() bool {
	return c.Details.FieldType == FieldTypeColor
}

// Option is one selectable value of a configuration.
type Option struct {
	ID       string   `json:"_id,omitempty"`
	OptionID Ref      `json:"optionId"`
	Images   []string `json:"images,omitempty"`
}

// SelectedOption is an option chosen for a product being created.
type SelectedOption struct {
	ID       string   `json:"_id"`
	OptionID string   `json:"optionId"`
	Images   []string `json:"images"`
}

// ConfigurationSelection is the write model for one configuration of a new
// product.
type ConfigurationSelection struct {
	ConfigurationID string           `json:"configurationId"`
	SelectedOptions []SelectedOption `json:"selectedOptions"`
}

// ProductDraft is the body POSTed to create a product.
type ProductDraft struct {
	ProductCode    string                   `json:"productCode,omitempty"`
	ProductName    string                   `json:"productName"`
	ProductType    string                   `json:"productType,omitempty"`
	ProductPrice   float64                  `json:"productPrice"`
	Description    string                   `json:"description,omitempty"`
	Brand          string                   `json:"brand,omitempty"`
	ActiveInactive ActiveFlag               `json:"activeInactive"`
	PartnerID      string                   `json:"partnerId,omitempty"`
	Configurations []ConfigurationSelection `json:"configurations"`
}

// FilterProductsByType returns the products whose type equals selectedType,
// in input order. An empty selectedType returns a copy of products. The
// result is never nil.
func FilterProductsByType(selectedType string, products []Product) []Product {
	if selectedType == "" {
		out := make([]Product, len(products))
		copy(out, products)
		return out
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.ProductType == selectedType {
			out = append(out, p)
		}
	}
	return out
}

// DistinctProductTypes returns each non-empty product type once, in order of
// first appearance.
func DistinctProductTypes(products []Product) []string {
	seen := make(map[string]struct{}, len(products))
	types := make([]string, 0)
	for _, p := range products {
		if p.ProductType == "" {
			continue
		}
		if _, ok := seen[p.ProductType]; ok {
			continue
		}
		seen[p.ProductType] = struct{}{}
		types = append(types, p.ProductType)
	}
	return types
}

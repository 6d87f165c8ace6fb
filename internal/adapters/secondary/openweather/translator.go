package openweather

import (
	"encoding/json"
	"fmt"

	"github.com/openwx/weather-gateway/internal/core/domain"
)

// weatherData mirrors the provider's current-weather payload. Only the fields
// the gateway exposes are decoded; everything else is ignored.
type weatherData struct {
	Name string `json:"name"`

	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`

	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`

	// Message is present only on provider-reported failures,
	// e.g. "city not found".
	Message string `json:"message"`
}

// Translator parses provider bodies into the normalized ProviderReport.
type Translator struct{}

// NewTranslator creates a provider payload translator.
func NewTranslator() *Translator {
	return &Translator{}
}

// Translate decodes a provider body. Absent fields default to the empty
// string, including a missing or empty weather array; only JSON that does not
// parse at all is an error, since that indicates contract drift rather than a
// user input problem.
func (t *Translator) Translate(body []byte) (domain.ProviderReport, error) {
	var data weatherData

	if err := json.Unmarshal(body, &data); err != nil {
		return domain.ProviderReport{}, fmt.Errorf("malformed provider payload: %w", err)
	}

	report := domain.ProviderReport{
		CityName:     data.Name,
		CountryCode:  data.Sys.Country,
		ErrorMessage: data.Message,
	}

	if len(data.Weather) > 0 {
		report.Description = data.Weather[0].Description
	}

	return report, nil
}

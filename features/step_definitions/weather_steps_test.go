package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/openwx/weather-gateway/internal/adapters/primary/rest"
	"github.com/openwx/weather-gateway/internal/core/domain"
)

type testContext struct {
	server       *httptest.Server
	response     *http.Response
	responseBody map[string]interface{}
	mockService  *mockWeatherService
}

type mockWeatherService struct {
	shouldFail bool
}

func (m *mockWeatherService) CurrentWeather(ctx context.Context, query domain.WeatherQuery) (domain.OperationResult[domain.CurrentWeather], error) {
	if m.shouldFail {
		return domain.FailureResult[domain.CurrentWeather](http.StatusInternalServerError, "connection refused"), nil
	}

	if query.City == "Mum" {
		return domain.FailureResult[domain.CurrentWeather](http.StatusNotFound, "city not found"), nil
	}

	return domain.OKResult(domain.CurrentWeather{
		City:        query.City,
		CountryCode: "IN",
		Description: "Haze",
	}), nil
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{".."},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &testContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.mockService = &mockWeatherService{}
		tc.response = nil
		tc.responseBody = nil
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if tc.server != nil {
			tc.server.Close()
			tc.server = nil
		}
		return ctx, nil
	})

	ctx.Step(`^the weather gateway is running$`, tc.theWeatherGatewayIsRunning)
	ctx.Step(`^the upstream provider is unavailable$`, tc.theUpstreamProviderIsUnavailable)
	ctx.Step(`^I request current weather for city "([^"]*)" in country "([^"]*)"$`, tc.iRequestWeatherForCityAndCountry)
	ctx.Step(`^I request current weather for city "([^"]*)"$`, tc.iRequestWeatherForCity)
	ctx.Step(`^I request current weather without a city$`, tc.iRequestWeatherWithoutCity)
	ctx.Step(`^I should receive a successful response$`, tc.statusShouldBe(http.StatusOK))
	ctx.Step(`^I should receive a bad request response$`, tc.statusShouldBe(http.StatusBadRequest))
	ctx.Step(`^I should receive a not found response$`, tc.statusShouldBe(http.StatusNotFound))
	ctx.Step(`^I should receive an internal error response$`, tc.statusShouldBe(http.StatusInternalServerError))
	ctx.Step(`^the response city should be "([^"]*)"$`, tc.theResponseCityShouldBe)
	ctx.Step(`^the response description should be "([^"]*)"$`, tc.theResponseDescriptionShouldBe)
	ctx.Step(`^the response errors should contain "([^"]*)"$`, tc.theResponseErrorsShouldContain)
}

func (tc *testContext) theWeatherGatewayIsRunning() error {
	logger := zap.NewNop()
	handler := rest.NewWeatherHandler(tc.mockService, logger)

	router := mux.NewRouter()
	router.HandleFunc("/v1/weather/current", handler.GetCurrentWeather).Methods("GET")

	tc.server = httptest.NewServer(router)
	return nil
}

func (tc *testContext) theUpstreamProviderIsUnavailable() error {
	tc.mockService.shouldFail = true
	return nil
}

func (tc *testContext) iRequestWeatherForCityAndCountry(city, country string) error {
	return tc.get(fmt.Sprintf("%s/v1/weather/current?city=%s&country=%s",
		tc.server.URL, url.QueryEscape(city), url.QueryEscape(country)))
}

func (tc *testContext) iRequestWeatherForCity(city string) error {
	return tc.get(fmt.Sprintf("%s/v1/weather/current?city=%s", tc.server.URL, url.QueryEscape(city)))
}

func (tc *testContext) iRequestWeatherWithoutCity() error {
	return tc.get(tc.server.URL + "/v1/weather/current")
}

func (tc *testContext) get(requestURL string) error {
	resp, err := http.Get(requestURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.response = resp
	return json.NewDecoder(resp.Body).Decode(&tc.responseBody)
}

func (tc *testContext) statusShouldBe(expected int) func() error {
	return func() error {
		if tc.response.StatusCode != expected {
			return fmt.Errorf("expected status %d, got %d", expected, tc.response.StatusCode)
		}
		return nil
	}
}

func (tc *testContext) theResponseCityShouldBe(expected string) error {
	data, ok := tc.responseBody["data"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("response does not contain data")
	}

	city, _ := data["city"].(string)
	if city != expected {
		return fmt.Errorf("expected city %s, got %s", expected, city)
	}
	return nil
}

func (tc *testContext) theResponseDescriptionShouldBe(expected string) error {
	data, ok := tc.responseBody["data"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("response does not contain data")
	}

	description, _ := data["description"].(string)
	if description != expected {
		return fmt.Errorf("expected description %s, got %s", expected, description)
	}
	return nil
}

func (tc *testContext) theResponseErrorsShouldContain(expected string) error {
	rawErrors, ok := tc.responseBody["errors"].([]interface{})
	if !ok {
		return fmt.Errorf("response does not contain errors")
	}

	for _, raw := range rawErrors {
		if message, ok := raw.(string); ok && strings.Contains(message, expected) {
			return nil
		}
	}

	return fmt.Errorf("errors %v do not contain '%s'", rawErrors, expected)
}

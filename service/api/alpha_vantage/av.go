package alpha_vantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	ex "github.com/GabrielFrota/NewsPrice/data/extensions"
	m "github.com/GabrielFrota/NewsPrice/data/models"
	c "github.com/GabrielFrota/NewsPrice/service/api"
)

// public
const (
	HostDefault       = "www.alphavantage.co"
	OutputSizeCompact = "compact"
	OutputSizeFull    = "full"
)

// private
const (
	defaultDataType = "json"
	metaDataKey     = "Meta Data"

	// api request elements
	query      = "query"
	symbol     = "symbol"
	function   = "function"
	apiKey     = "apikey"
	dataType   = "datatype"
	outputSize = "outputsize"
)

var (
	timeSeriesDateFormats = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
	}

	// payloads the feed answers with 200 instead of a series
	messageKeys = []string{"Error Message", "Note", "Information"}
)

type AlphaVantageClient struct {
	*c.Client
	outputSize string
}

func GetClient(opts c.ClientOptions, apiKey, outputSize string) *AlphaVantageClient {
	if opts.Host == "" {
		opts.Host = HostDefault
	}
	if opts.Name == "" {
		opts.Name = "alpha_vantage"
	}
	if outputSize == "" {
		outputSize = OutputSizeCompact
	}

	return &AlphaVantageClient{
		Client:     c.ClientFactory(opts, apiKey),
		outputSize: outputSize,
	}
}

// GetDailyCloses returns the closes of ticker between from and to inclusive, ascending by trading date.
// A zero from or to leaves that side unbounded.
// https://www.alphavantage.co/documentation/#daily
func (avc *AlphaVantageClient) GetDailyCloses(ctx context.Context, series TimeSeries, ticker string, from, to time.Time) (*m.TimeSeriesResult, error) {
	if avc == nil {
		panic("alpha vantage client has not been set.")
	}

	endpoint := avc.buildRequestPath(map[string]string{
		function: series.Function(),
		symbol:   ticker,
	})

	response, err := avc.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close()

	raw, err := parseRawJson(response.Body)
	if err != nil {
		return nil, err
	}

	if _, ok := raw[series.TimeSeriesKey()]; !ok {
		return nil, feedMessageError(raw, ticker)
	}

	metaData, timeZone, err := parseMetaData(raw)
	if err != nil {
		return nil, err
	}

	closes, err := parseDailyCloses(raw, series, timeZone)
	if err != nil {
		return nil, err
	}

	inRange := func(dc *m.DailyClose) bool {
		return (from.IsZero() || !dc.TradingDate.Before(ex.ToDate(from))) &&
			(to.IsZero() || !dc.TradingDate.After(ex.ToDate(to)))
	}
	closes = ex.FilterMultiplePtr(closes, inRange)
	slices.SortFunc(closes, func(a, b *m.DailyClose) int { return a.TradingDate.Compare(b.TradingDate) })

	return &m.TimeSeriesResult{
		Metadata:   metaData,
		TimeSeries: closes,
	}, nil
}

func (avc *AlphaVantageClient) buildRequestPath(params map[string]string) *url.URL {
	// build our URL
	endpoint := &url.URL{}
	endpoint.Path = query

	// base parameters
	query := endpoint.Query()
	query.Set(apiKey, avc.Client.ApiKey)
	query.Set(dataType, defaultDataType)
	query.Set(outputSize, avc.outputSize)

	// additional parameters
	for key, value := range params {
		query.Set(key, value)
	}

	endpoint.RawQuery = query.Encode()

	return endpoint
}

func parseRawJson(reader io.Reader) (raw map[string]json.RawMessage, err error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	// converting to a <string, raw message> map
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	return
}

func feedMessageError(raw map[string]json.RawMessage, ticker string) error {
	for _, key := range messageKeys {
		var message string
		if err := json.Unmarshal(raw[key], &message); err == nil && message != "" {
			return fmt.Errorf("alpha vantage returned no series for %s: %s", ticker, message)
		}
	}
	return fmt.Errorf("alpha vantage returned no series for %s, keys present: %v", ticker, slices.Sorted(maps.Keys(raw)))
}

func parseMetaData(raw map[string]json.RawMessage) (*m.TimeSeriesMetadata, *time.Location, error) {
	var metadataElements map[string]string
	if err := json.Unmarshal(raw[metaDataKey], &metadataElements); err != nil {
		return nil, nil, fmt.Errorf("error unmarshaling meta data: %w", err)
	}

	metaDataKeys := slices.Collect(maps.Keys(metadataElements))
	suffixed := func(suffix string) (string, error) {
		return ex.FilterSingle(metaDataKeys, func(s string) bool { return strings.HasSuffix(s, suffix) })
	}

	// parse symbol
	symbolKey, err := suffixed(". Symbol")
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting symbol for meta data")
	}

	// parse time zone
	timeZoneKey, err := suffixed(". Time Zone")
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting time zone for meta data")
	}

	timeZone, err := getTimeZone(metadataElements[timeZoneKey])
	if err != nil {
		return nil, nil, fmt.Errorf("error converting time zone key %s, to time.Location: %w", metadataElements[timeZoneKey], err)
	}

	// parse last refreshed
	lastRefreshedKey, err := suffixed(". Last Refreshed")
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting last refreshed date")
	}

	lastRefreshed, err := parseDate(metadataElements[lastRefreshedKey], timeZone)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing last refreshed date")
	}

	res := m.TimeSeriesMetadata{
		Symbol:        metadataElements[symbolKey],
		LastRefreshed: lastRefreshed,
		TimeZone:      null.StringFrom(metadataElements[timeZoneKey]),
	}

	// information is descriptive only
	if informationKey, err := suffixed(". Information"); err == nil {
		res.Information = null.StringFrom(metadataElements[informationKey])
	}

	return &res, timeZone, nil
}

func parseDailyCloses(raw map[string]json.RawMessage, series TimeSeries, location *time.Location) ([]*m.DailyClose, error) {
	var timeSeriesElements map[string]map[string]string
	if err := json.Unmarshal(raw[series.TimeSeriesKey()], &timeSeriesElements); err != nil {
		return nil, fmt.Errorf("error unmarshaling time series: %w", err)
	}

	closes := make([]*m.DailyClose, 0, len(timeSeriesElements))
	for timeSeriesKey, timeSeriesValue := range timeSeriesElements {
		timestamp, err := parseDate(timeSeriesKey, location)
		if err != nil {
			return nil, fmt.Errorf("error converting TIMESTAMP from string to time.Time: %w", err)
		}

		valueKeys := slices.Collect(maps.Keys(timeSeriesValue))
		closeKey, err := ex.FilterSingle(valueKeys, func(s string) bool { return strings.HasSuffix(s, ". close") })
		if err != nil {
			return nil, fmt.Errorf("error extracting close key for %s: %w", timeSeriesKey, err)
		}

		closeValue, err := parseFloat(timeSeriesValue[closeKey])
		if err != nil {
			return nil, fmt.Errorf("error parsing close for %s: %w", timeSeriesKey, err)
		}

		dc := &m.DailyClose{
			TradingDate: ex.ToDate(timestamp),
			Close:       closeValue,
		}

		if series.IsAdjusted() {
			adjustedKey, err := ex.FilterSingle(valueKeys, func(s string) bool { return strings.HasSuffix(s, ". adjusted close") })
			if err != nil {
				return nil, fmt.Errorf("error extracting adjusted close key for %s: %w", timeSeriesKey, err)
			}

			adjusted, err := parseFloat(timeSeriesValue[adjustedKey])
			if err != nil {
				return nil, fmt.Errorf("error parsing adjusted close for %s: %w", timeSeriesKey, err)
			}
			dc.AdjustedClose = null.FloatFrom(adjusted)
		}

		closes = append(closes, dc)
	}

	return closes, nil
}

func getTimeZone(location string) (*time.Location, error) {
	var loc string
	switch strings.ToUpper(location) {
	case "US/EASTERN":
		loc = "America/New_York"
	default:
		log.Debug().Str("timeZone", location).Msg("default time zone hit, using UTC")
		return time.UTC, nil
	}

	res, err := time.LoadLocation(loc)

	if err != nil {
		return nil, fmt.Errorf("error parsing time zone %s in time.LoadLocation", loc)
	}

	return res, nil
}

func parseDate(dateString string, location *time.Location) (time.Time, error) {
	for _, format := range timeSeriesDateFormats {
		t, err := time.ParseInLocation(format, dateString, location)
		if err != nil {
			continue
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("error converting date %s to time.Time", dateString)
}

func parseFloat(val string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing %q as float: %w", val, err)
	}
	return f, nil
}

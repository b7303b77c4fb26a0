package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/weather-feed-service/internal/models"
)

func TestParse_FullFeed(t *testing.T) {
	got, err := Parse([]byte(londonFeed))
	require.NoError(t, err)

	assert.Equal(t, "London, England", got.Info.City())
	assert.Equal(t, "2011-07-01", got.Info.ForecastDate())
	assert.Equal(t, "2011-07-01 10:50:00 +0000", got.Info.CurrentDateTime())
	assert.Equal(t, "", got.Info.Get("latitude_e6"))

	assert.Equal(t, models.UnitCelsius, got.Current.Unit)
	assert.Equal(t, "Mostly Cloudy", got.Current.Condition())
	assert.Equal(t, "Humidity: 56%", got.Current.Humidity())
	assert.Equal(t, "Wind: W at 14 mph", got.Current.WindCondition())

	require.Len(t, got.Days, 3)
	for _, d := range got.Days {
		assert.Equal(t, models.UnitCelsius, d.Unit)
	}
}

func TestParse_ProblemCause(t *testing.T) {
	got, err := Parse([]byte(problemFeed))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
	assert.NotErrorIs(t, err, ErrParse)
	assert.Empty(t, got.Days)
	assert.Nil(t, got.Current.Fields)
}

func TestParse_ProblemCauseWithMessage(t *testing.T) {
	body := `<xml_api_reply><weather><problem_cause data="unknown city"/><current_conditions><temp_f data="1"/></current_conditions></weather></xml_api_reply>`
	_, err := Parse([]byte(body))
	require.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "unknown city")
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "not xml", body: "<html><body>oops"},
		{name: "truncated", body: `<xml_api_reply><weather><current_conditions>`},
		{name: "no weather element", body: `<xml_api_reply><other/></xml_api_reply>`},
		{name: "unterminated tag after root", body: `<xml_api_reply><weather/></xml_api_reply><oops`},
		{name: "stray end tag after root", body: `<xml_api_reply><weather/></xml_api_reply></extra>`},
		{name: "second root element", body: `<xml_api_reply><weather/></xml_api_reply><xml_api_reply/>`},
		{name: "text after root", body: `<xml_api_reply><weather/></xml_api_reply>trailing`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestParse_AttributeCopyIsExact(t *testing.T) {
	body := `<xml_api_reply><weather><current_conditions><wind data="N 10 mph"/><humidity data="50%"/></current_conditions></weather></xml_api_reply>`
	got, err := Parse([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"wind": "N 10 mph", "humidity": "50%"}, got.Current.Fields)
	assert.Equal(t, []string{"humidity", "wind"}, got.Current.Names())
}

func TestParse_UnknownTagsKept(t *testing.T) {
	body := `<xml_api_reply><weather><forecast_conditions><pollen data="high"/><uv_index/></forecast_conditions></weather></xml_api_reply>`
	got, err := Parse([]byte(body))
	require.NoError(t, err)
	require.Len(t, got.Days, 1)

	assert.Equal(t, "high", got.Days[0].Get("pollen"))
	assert.True(t, got.Days[0].Has("uv_index"))
	assert.Equal(t, "", got.Days[0].Get("uv_index"))
	assert.False(t, got.Days[0].Has(models.FieldLow))
}

func TestParse_DayOrderPreserved(t *testing.T) {
	got, err := Parse([]byte(londonFeed))
	require.NoError(t, err)
	require.Len(t, got.Days, 3)

	assert.Equal(t, "Fri", got.Days[0].DayOfWeek())
	assert.Equal(t, "Sat", got.Days[1].DayOfWeek())
	assert.Equal(t, "Sun", got.Days[2].DayOfWeek())
	assert.Equal(t, "Mostly Sunny", got.Days[0].Condition())
	assert.Equal(t, "Chance of Rain", got.Days[1].Condition())
	assert.Equal(t, "Clear", got.Days[2].Condition())
}

func TestParse_DayTemperaturesConverted(t *testing.T) {
	got, err := Parse([]byte(londonFeed))
	require.NoError(t, err)
	require.Len(t, got.Days, 3)

	assert.Equal(t, "10", got.Days[0].Low())
	assert.Equal(t, "20", got.Days[0].High())
	assert.Equal(t, "12", got.Days[1].Low())
	assert.Equal(t, "22", got.Days[1].High())
	assert.Equal(t, "13", got.Days[2].Low())
	assert.Equal(t, "23", got.Days[2].High())
}

func TestParse_CurrentConditionsNotConverted(t *testing.T) {
	body := `<xml_api_reply><weather><current_conditions><low data="50"/><high data="68"/><temp_f data="64"/></current_conditions></weather></xml_api_reply>`
	got, err := Parse([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "50", got.Current.Low())
	assert.Equal(t, "68", got.Current.High())
	assert.Equal(t, "64", got.Current.TempF())
}

func TestParse_DayConversionSkippedWithoutLow(t *testing.T) {
	tests := []struct {
		name     string
		children string
		wantLow  string
		wantHigh string
		hasHigh  bool
	}{
		{name: "no low", children: `<high data="68"/>`, wantLow: "", wantHigh: "68", hasHigh: true},
		{name: "empty low", children: `<low data=""/><high data="68"/>`, wantLow: "", wantHigh: "68", hasHigh: true},
		{name: "zero low", children: `<low data="0"/><high data="68"/>`, wantLow: "0", wantHigh: "68", hasHigh: true},
		{name: "low without high", children: `<low data="50"/>`, wantLow: "10", wantHigh: "-17", hasHigh: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `<xml_api_reply><weather><forecast_conditions>` + tt.children + `</forecast_conditions></weather></xml_api_reply>`
			got, err := Parse([]byte(body))
			require.NoError(t, err)
			require.Len(t, got.Days, 1)
			assert.Equal(t, tt.wantLow, got.Days[0].Low())
			assert.Equal(t, tt.wantHigh, got.Days[0].High())
			assert.Equal(t, tt.hasHigh, got.Days[0].Has(models.FieldHigh))
		})
	}
}

func TestParse_NoForecastSection(t *testing.T) {
	body := `<xml_api_reply><weather><current_conditions><temp_f data="64"/></current_conditions></weather></xml_api_reply>`
	got, err := Parse([]byte(body))
	require.NoError(t, err)
	assert.Empty(t, got.Days)
	assert.Nil(t, got.Info.Fields)
}

func TestParse_Latin1Encoding(t *testing.T) {
	body := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><xml_api_reply><weather><forecast_information><city data=\"Z\xfcrich\"/></forecast_information></weather></xml_api_reply>"
	got, err := Parse([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "Zürich", got.Info.City())
}

func TestParse_TrailingMiscAllowed(t *testing.T) {
	body := "<xml_api_reply><weather/></xml_api_reply>\n<!-- served by ig -->\n  "
	_, err := Parse([]byte(body))
	require.NoError(t, err)
}

func TestParse_DeclaredEncodings(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		city     string
		want     string
	}{
		{name: "us-ascii", encoding: "US-ASCII", city: "London", want: "London"},
		{name: "windows-1252", encoding: "windows-1252", city: "Z\xfcrich", want: "Zürich"},
		{name: "latin1 alias", encoding: "latin1", city: "Z\xfcrich", want: "Zürich"},
		{name: "iso-8859-15", encoding: "ISO-8859-15", city: "Z\xfcrich", want: "Zürich"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := "<?xml version=\"1.0\" encoding=\"" + tt.encoding + "\"?><xml_api_reply><weather><forecast_information><city data=\"" + tt.city + "\"/></forecast_information></weather></xml_api_reply>"
			got, err := Parse([]byte(body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Info.City())
		})
	}
}

func TestParse_UnsupportedEncoding(t *testing.T) {
	body := `<?xml version="1.0" encoding="EBCDIC"?><xml_api_reply><weather/></xml_api_reply>`
	_, err := Parse([]byte(body))
	require.ErrorIs(t, err, ErrParse)
	assert.True(t, strings.Contains(err.Error(), "EBCDIC"))
}

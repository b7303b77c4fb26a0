// Package feed parses the provider's XML weather feed into forecast records.
package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/kjstillabower/weather-feed-service/internal/models"
)

var (
	// ErrParse is returned when the body is not a well-formed feed document.
	ErrParse = errors.New("parse feed")
	// ErrProvider is returned when the feed itself reports a failure via problem_cause.
	ErrProvider = errors.New("provider reported problem")
)

// Element names in the feed.
const (
	elemWeather            = "weather"
	elemProblemCause       = "problem_cause"
	elemForecastInfo       = "forecast_information"
	elemCurrentConditions  = "current_conditions"
	elemForecastConditions = "forecast_conditions"
	attrData               = "data"
)

// node is a generic element: its name, attributes and child elements.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []node     `xml:",any"`
}

func (n node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n node) child(name string) (node, bool) {
	for _, c := range n.Children {
		if c.XMLName.Local == name {
			return c, true
		}
	}
	return node{}, false
}

func (n node) children(name string) []node {
	var out []node
	for _, c := range n.Children {
		if c.XMLName.Local == name {
			out = append(out, c)
		}
	}
	return out
}

// Parse decodes a feed document. The returned result has no Location or FetchedAt set;
// those belong to the caller that issued the request.
func Parse(body []byte) (models.ForecastResult, error) {
	var root node
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&root); err != nil {
		return models.ForecastResult{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := expectEnd(dec); err != nil {
		return models.ForecastResult{}, err
	}

	weather, ok := root.child(elemWeather)
	if !ok {
		return models.ForecastResult{}, fmt.Errorf("%w: no %s element under <%s>", ErrParse, elemWeather, root.XMLName.Local)
	}

	if cause, ok := weather.child(elemProblemCause); ok {
		if msg := cause.attr(attrData); msg != "" {
			return models.ForecastResult{}, fmt.Errorf("%w: %s", ErrProvider, msg)
		}
		return models.ForecastResult{}, ErrProvider
	}

	var result models.ForecastResult
	if info, ok := weather.child(elemForecastInfo); ok {
		for _, c := range info.Children {
			result.Info.Set(c.XMLName.Local, c.attr(attrData))
		}
	}

	result.Current = models.NewConditionRecord(models.UnitCelsius)
	if cur, ok := weather.child(elemCurrentConditions); ok {
		recordConditions(cur, &result.Current)
	}

	days := weather.children(elemForecastConditions)
	result.Days = make([]models.ConditionRecord, 0, len(days))
	for _, d := range days {
		day := models.NewConditionRecord(models.UnitCelsius)
		recordConditions(d, &day)
		// NOTE: day records are always declared Celsius, so low/high are always run through
		// the F->C conversion even if the feed already reports Celsius (unit_system=SI).
		// Current conditions are never converted. Kept as-is for compatibility; changing
		// either side is a behavior change for callers.
		if day.Unit == models.UnitCelsius && !isEmpty(day.Low()) {
			day.Set(models.FieldLow, ConvertTemp(day.Low()))
			day.Set(models.FieldHigh, ConvertTemp(day.High()))
		}
		result.Days = append(result.Days, day)
	}

	return result, nil
}

// recordConditions copies every direct child's data attribute onto rec under the child's tag name.
func recordConditions(src node, rec *models.ConditionRecord) {
	for _, c := range src.Children {
		rec.Set(c.XMLName.Local, c.attr(attrData))
	}
}

// isEmpty treats "" and "0" as empty, matching how the feed's low value has always been tested.
func isEmpty(s string) bool {
	return s == "" || s == "0"
}

// expectEnd consumes the rest of the document. Only whitespace, comments and processing
// instructions may follow the root element.
func expectEnd(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("%w: element <%s> after document root", ErrParse, t.Name.Local)
		case xml.EndElement:
			return fmt.Errorf("%w: unexpected </%s> after document root", ErrParse, t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("%w: text after document root", ErrParse)
			}
		}
	}
}

// charsetReader decodes any encoding label known to the WHATWG encoding index; encoding/xml
// only knows UTF-8.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(strings.TrimSpace(label))
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

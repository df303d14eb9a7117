// Package response parses CTI OS response documents into per-posident
// outcomes. Every posident submitted in a batch comes back as one os element
// carrying either an error literal or a detail payload; anything outside
// that closed set is surfaced as a parse error instead of being dropped.
package response

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Namespace is the CTI OS types namespace all response elements live in.
const Namespace = "http://katastr.cuzk.cz/ctios/types/v2.8"

// Error literals the service uses to reject individual posidents.
const (
	literalInvalid         = "NEPLATNY_IDENTIFIKATOR"
	literalExpired         = "EXPIROVANY_IDENTIFIKATOR"
	literalSubjectNotFound = "OPRAVNENY_SUBJEKT_NEEXISTUJE"
)

// Outcome classifies one response record.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeInvalidIdentifier
	OutcomeExpiredIdentifier
	OutcomeSubjectNotFound
)

// String returns a short label for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeInvalidIdentifier:
		return "invalid_identifier"
	case OutcomeExpiredIdentifier:
		return "expired_identifier"
	case OutcomeSubjectNotFound:
		return "subject_not_found"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Record is one classified response entry.
type Record struct {
	Posident string
	Outcome  Outcome

	// Set only for OutcomeSuccess
	ServiceRecordID string
	Attributes      map[string]string
}

// RunCounters tallies classification outcomes across a whole run. It is
// threaded explicitly through the pipeline; nothing mutates it ambiently.
type RunCounters struct {
	Succeeded         int
	InvalidIdentifier int
	ExpiredIdentifier int
	SubjectNotFound   int
}

// Total returns the number of classified records.
func (c *RunCounters) Total() int {
	return c.Succeeded + c.InvalidIdentifier + c.ExpiredIdentifier + c.SubjectNotFound
}

func (c *RunCounters) add(o Outcome) {
	switch o {
	case OutcomeSuccess:
		c.Succeeded++
	case OutcomeInvalidIdentifier:
		c.InvalidIdentifier++
	case OutcomeExpiredIdentifier:
		c.ExpiredIdentifier++
	case OutcomeSubjectNotFound:
		c.SubjectNotFound++
	}
}

// ParseError reports a response document the classifier could not interpret:
// malformed XML, missing os elements, or an error literal outside the known
// set. It aborts the run rather than letting records slip through uncounted.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("response parse error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("response parse error: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// osElement mirrors one os element of the response document.
type osElement struct {
	Posident string    `xml:"http://katastr.cuzk.cz/ctios/types/v2.8 pOSIdent"`
	OsID     string    `xml:"http://katastr.cuzk.cz/ctios/types/v2.8 osId"`
	Chyba    string    `xml:"http://katastr.cuzk.cz/ctios/types/v2.8 chybaPOSIdent"`
	Detail   *osDetail `xml:"http://katastr.cuzk.cz/ctios/types/v2.8 osDetail"`
}

// osDetail captures every child of the detail container regardless of tag.
type osDetail struct {
	Children []detailChild `xml:",any"`
}

type detailChild struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// Classifier turns raw response documents into Records.
type Classifier struct {
	log *zap.Logger
}

// NewClassifier creates a classifier logging through the given logger.
func NewClassifier(log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{log: log}
}

// Classify parses the response document and returns one Record per os
// element, incrementing counters for every classified record. Counting
// happens here, not at persistence time, so records that later fail to
// persist are still tallied as received.
func (c *Classifier) Classify(doc string, counters *RunCounters) ([]Record, error) {
	decoder := xml.NewDecoder(strings.NewReader(doc))
	decoder.CharsetReader = charset.NewReaderLabel

	var records []Record
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Reason: "malformed response document", Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Space != Namespace || start.Name.Local != "os" {
			continue
		}

		var elem osElement
		if err := decoder.DecodeElement(&elem, &start); err != nil {
			return nil, &ParseError{Reason: "malformed os element", Err: err}
		}

		rec, err := c.classifyElement(&elem)
		if err != nil {
			return nil, err
		}
		counters.add(rec.Outcome)
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, &ParseError{Reason: "no os elements found in response"}
	}
	return records, nil
}

// classifyElement classifies a single os element. The error literal set is
// closed: an unrecognized literal is a parse error, never an implicit
// success.
func (c *Classifier) classifyElement(elem *osElement) (Record, error) {
	if elem.Chyba != "" {
		var outcome Outcome
		switch elem.Chyba {
		case literalInvalid:
			outcome = OutcomeInvalidIdentifier
		case literalExpired:
			outcome = OutcomeExpiredIdentifier
		case literalSubjectNotFound:
			outcome = OutcomeSubjectNotFound
		default:
			return Record{}, &ParseError{
				Reason: fmt.Sprintf("unknown error literal %q for posident %s", elem.Chyba, elem.Posident),
			}
		}
		c.log.Warn("posident rejected by service",
			zap.String("posident", elem.Posident),
			zap.String("reason", outcome.String()))
		return Record{Posident: elem.Posident, Outcome: outcome}, nil
	}

	if elem.OsID == "" {
		return Record{}, &ParseError{
			Reason: fmt.Sprintf("os element for posident %s has neither error literal nor osId", elem.Posident),
		}
	}
	if elem.Detail == nil {
		return Record{}, &ParseError{
			Reason: fmt.Sprintf("os element for posident %s is missing the osDetail container", elem.Posident),
		}
	}

	attrs := make(map[string]string, len(elem.Detail.Children))
	for _, child := range elem.Detail.Children {
		attrs[child.XMLName.Local] = child.Value
	}

	c.log.Debug("posident resolved",
		zap.String("posident", elem.Posident),
		zap.String("os_id", elem.OsID),
		zap.Int("attributes", len(attrs)))

	return Record{
		Posident:        elem.Posident,
		Outcome:         OutcomeSuccess,
		ServiceRecordID: elem.OsID,
		Attributes:      attrs,
	}, nil
}

package report

import (
	"log/slog"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NumberNormalizer rewrites the calling/called number fields of parsed
// rows into international format so exports and aggregates use one
// canonical spelling per number. Normalization is advisory: numbers that
// cannot be parsed are left untouched and never fail the run.
type NumberNormalizer struct {
	country string
	log     *slog.Logger
}

func NewNumberNormalizer(country string, log *slog.Logger) *NumberNormalizer {
	if log == nil {
		log = slog.Default()
	}

	return &NumberNormalizer{country: country, log: log}
}

var numberFields = []string{fieldCallingNumber, fieldCalledNumber}

// Normalize rewrites the number fields of all rows in place.
func (n *NumberNormalizer) Normalize(rows []Row) {
	for _, row := range rows {
		for _, field := range numberFields {
			value := row.Get(field)
			if value == "" || strings.EqualFold(value, "anonymous") {
				continue
			}

			parsed, err := phonenumbers.Parse(value, n.country)
			if err != nil {
				n.log.Debug("failed to parse phone number", "number", value, "error", err)

				continue
			}

			row[field] = phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL)
		}
	}
}

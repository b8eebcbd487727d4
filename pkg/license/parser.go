package license

import (
	"encoding/json"
	"unicode/utf8"
)

// viewData mirrors the JSON the checkout page exposes once an order view is
// rendered. Every field is optional at decode time; requiredness is enforced
// only after a purchaser name is present, so a page observed mid-flow decodes
// to "no result yet" instead of an error.
type viewData struct {
	DebtorName *string `json:"debtorName"`
	Order      *order  `json:"order"`
}

type order struct {
	Groups []group `json:"groups"`
}

type group struct {
	Items []item `json:"items"`
}

type item struct {
	Fulfillment *fulfillment `json:"fulfillment"`
}

type fulfillment struct {
	Licenses []wireLicense `json:"licenses"`
}

type wireLicense struct {
	Code *string `json:"code"`
}

// Parse decodes one raw payload received from the content context. The
// payload must be a string carrying UTF-8 JSON in the order view shape.
//
// Parse is a pure function: the same payload always yields the same outcome.
// Absence of purchase data (no debtorName) is tolerated and reported as a
// not-completed outcome; malformed data once a name is present is an error
// worth surfacing, since it indicates an unexpected page shape.
func Parse(raw any) (Outcome, error) {
	payload, ok := raw.(string)
	if !ok {
		return Outcome{}, NewParseError(KindInvalidPayloadType, "payload is not a string")
	}
	if !utf8.ValidString(payload) {
		return Outcome{}, NewParseError(KindEncodingError, "payload is not valid UTF-8 text")
	}

	var vd viewData
	if err := json.Unmarshal([]byte(payload), &vd); err != nil {
		// The document may still be valid JSON whose order section has an
		// unexpected shape. Whether that matters depends on the purchaser
		// name: without one the page simply has no finished order yet.
		var probe struct {
			DebtorName *string `json:"debtorName"`
		}
		if probeErr := json.Unmarshal([]byte(payload), &probe); probeErr == nil && probe.DebtorName == nil {
			return Outcome{}, nil
		}
		return Outcome{}, WrapParseError(KindMalformedStructure, "payload does not match the order view shape", err)
	}

	if vd.DebtorName == nil {
		return Outcome{}, nil
	}
	name := *vd.DebtorName

	if vd.Order == nil {
		return Outcome{}, NewParseError(KindMalformedStructure, "order is required once a purchaser name is present")
	}
	if vd.Order.Groups == nil {
		return Outcome{}, NewParseError(KindMalformedStructure, "order.groups is required")
	}

	records := make([]Record, 0)
	for _, grp := range vd.Order.Groups {
		if grp.Items == nil {
			return Outcome{}, NewParseError(KindMalformedStructure, "group.items is required")
		}
		for _, it := range grp.Items {
			if it.Fulfillment == nil {
				continue
			}
			if it.Fulfillment.Licenses == nil {
				return Outcome{}, NewParseError(KindMalformedStructure, "fulfillment.licenses is required")
			}
			for _, lic := range it.Fulfillment.Licenses {
				if lic.Code == nil {
					return Outcome{}, NewParseError(KindMalformedStructure, "license.code is required")
				}
				records = append(records, Record{Name: name, Code: *lic.Code})
			}
		}
	}

	return Outcome{Completed: true, Records: records}, nil
}

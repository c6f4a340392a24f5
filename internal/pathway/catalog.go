package pathway

import "clinicflow/flow-service/internal/station"

// Catalog resolves an acuity level plus complaint category into the ordered
// list of stations a visit must traverse. Every resolved pathway ends with
// the discharge sentinel.
type Catalog interface {
	Resolve(acuityLevel int, category string) []string
}

// TableCatalog is the built-in resolution table. Category pathways take
// precedence; acuity-level defaults apply when the category is unknown.
type TableCatalog struct {
	byCategory map[string][]string
	byAcuity   map[int][]string
	fallback   []string
}

func NewTableCatalog() *TableCatalog {
	return &TableCatalog{
		byCategory: map[string][]string{
			"trauma": {
				"trauma_center", "doctor_consult", "pharmacy", station.Discharge,
			},
			"glasses": {
				"registration", "vision_test", "refraction", "doctor_consult", station.Discharge,
			},
			"red_eye": {
				"registration", "vision_test", "iop_check", "doctor_consult", "pharmacy", station.Discharge,
			},
			"cataract": {
				"registration", "vision_test", "dilation", "fundus_photo", "investigation",
				"doctor_consult", "pharmacy", station.Discharge,
			},
			"follow_up": {
				"registration", "vision_test", "doctor_consult", station.Discharge,
			},
		},
		byAcuity: map[int][]string{
			1: {"trauma_center", "doctor_consult", "pharmacy", station.Discharge},
			2: {"registration", "vision_test", "iop_check", "doctor_consult", "pharmacy", station.Discharge},
			3: {
				"registration", "vision_test", "refraction", "iop_check", "dilation",
				"fundus_photo", "doctor_consult", "pharmacy", station.Discharge,
			},
			4: {"registration", "vision_test", "doctor_consult", "pharmacy", station.Discharge},
			5: {"registration", "doctor_consult", station.Discharge},
		},
		fallback: []string{"registration", "vision_test", "doctor_consult", station.Discharge},
	}
}

func (c *TableCatalog) Resolve(acuityLevel int, category string) []string {
	if path, ok := c.byCategory[category]; ok {
		return append([]string(nil), path...)
	}
	if path, ok := c.byAcuity[acuityLevel]; ok {
		return append([]string(nil), path...)
	}
	return append([]string(nil), c.fallback...)
}

package tools

import "sort"

// FormSchema lists the fields one HR form type expects. Parsing and
// filling both validate against this registry, so a form is either
// complete or rejected with the exact missing field names.
type FormSchema struct {
	Required []string
	Optional []string
}

// Field value conventions shared by the schemas:
//   dates        dd/mm/yyyy or any parseable date string
//   times        HH:MM
//   category     academic | non_academic
//   employment   full_time | part_time
//   attachments  attached | not_attached
var SchemaRegistry = map[string]FormSchema{
	"annual": {
		Required: []string{
			"name", "id", "faculty_or_department",
			"academic_or_non_academic", "fulltime_or_parttime",
			"start_date", "end_date", "number_of_days",
		},
	},
	"accidental": {
		Required: []string{
			"name", "id", "faculty_or_department",
			"academic_or_non_academic", "fulltime_or_parttime",
			"start_date", "end_date", "number_of_days",
		},
	},
	"marriage": {
		Required: []string{
			"name", "id", "faculty_or_department",
			"academic_or_non_academic", "fulltime_or_parttime",
			"start_date", "end_date", "number_of_days",
		},
	},
	"excuse": {
		Required: []string{
			"name", "id", "department",
			"academic_or_non_academic", "fulltime_or_parttime",
			"excuse_date", "from_time", "to_time",
		},
	},
	"maternity": {
		Required: []string{
			"name", "id", "department",
			"academic_or_non_academic", "fulltime_or_parttime",
			"start_date", "end_date", "total_leave_days",
			"medical_report", "birth_certificate",
		},
	},
	"mission": {
		Required: []string{
			"name", "department",
			"academic_or_non_academic", "fulltime_or_parttime",
			"start_date", "end_date", "from_time", "to_time",
		},
		Optional: []string{"mission_destination"},
	},
	"attendance": {
		Required: []string{
			"name", "id", "faculty", "department", "missing_date",
		},
		Optional: []string{"missing_from_time", "missing_to_time"},
	},
}

// SupportedFormTypes returns the registered form types sorted for stable
// error payloads.
func SupportedFormTypes() []string {
	types := make([]string, 0, len(SchemaRegistry))
	for t := range SchemaRegistry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ValidateFields checks a parsed field map against the schema and returns
// the required fields that are absent or blank.
func (s FormSchema) ValidateFields(fields map[string]string) []string {
	var missing []string
	for _, name := range s.Required {
		if fields[name] == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

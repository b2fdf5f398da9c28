package tools

import "fmt"

// Rubric is the static weighted table behind Lecturer → Associate
// Professor promotion decisions.
type Rubric struct {
	Type       string           `json:"type"`
	Categories []RubricCategory `json:"categories"`
	Footer     RubricFooter     `json:"footer"`
}

type RubricCategory struct {
	Title string      `json:"title"`
	Rows  []RubricRow `json:"rows"`
}

type RubricRow struct {
	Description        string `json:"description"`
	MinRequiredNumbers int    `json:"min_required_numbers"`
	MinRequiredScore   int    `json:"min_required_score"`
	Remarks            string `json:"remarks"`
}

type RubricFooter struct {
	OverallTotalNumbers int `json:"overall_total_numbers"`
	OverallTotalScore   int `json:"overall_total_score"`
}

var PromotionTableLecturerToAP = Rubric{
	Type: "promotion_table_data",
	Categories: []RubricCategory{
		{
			Title: "Publication Records",
			Rows: []RubricRow{
				{
					Description:        "Single Authored Papers",
					MinRequiredNumbers: 1,
					MinRequiredScore:   3,
					Remarks:            "SA = 3 points / DA = 3/2 = 1.5 points / A = 3/3 = 1",
				},
				{
					Description:        "Joint Papers",
					MinRequiredNumbers: 6,
					MinRequiredScore:   6,
				},
			},
		},
		{
			Title: "Supervision Records",
			Rows: []RubricRow{
				{
					Description:        "PhD Supervision",
					MinRequiredNumbers: 1,
					MinRequiredScore:   3,
					Remarks:            "PhD = 3 points",
				},
				{
					Description:        "MSc / MBA Supervision",
					MinRequiredNumbers: 3,
					MinRequiredScore:   3,
					Remarks:            "MSc/MBA = 1 point",
				},
			},
		},
		{
			Title: "Professional Activities Records",
			Rows: []RubricRow{
				{
					Description:        "Funded Research Project",
					MinRequiredNumbers: 1,
					MinRequiredScore:   1,
					Remarks:            "<=100K$ = 1 point / 100-300K$ = 2 / 300-500K$ = 3 / >500K$ = 5",
				},
				{
					Description:        "Conference / Workshop Organization",
					MinRequiredNumbers: 1,
					MinRequiredScore:   1,
					Remarks:            "<=100 persons = 1 / 100-200 persons = 2 / >200 persons = 3",
				},
			},
		},
	},
	Footer: RubricFooter{
		OverallTotalNumbers: 14,
		OverallTotalScore:   18,
	},
}

// GetPromotionCalculationTable returns the rubric unchanged.
func GetPromotionCalculationTable() Rubric {
	return PromotionTableLecturerToAP
}

// AcademicSnapshot is the profile input to the eligibility calculator.
type AcademicSnapshot struct {
	PublicationsCount          int     `json:"publications_count"`
	SingleAuthoredPublications int     `json:"single_authored_publications"`
	SupervisedPhdStudents      int     `json:"supervised_phd_students"`
	SupervisedMastersStudents  int     `json:"supervised_masters_students"`
	WorkshopsOrganized         int     `json:"workshops_organized"`
	ResearchFundingUSD         float64 `json:"research_funding_usd"`
}

type CategoryResult struct {
	Title           string `json:"title"`
	ActualNumbers   int    `json:"actual_numbers"`
	ActualScore     int    `json:"actual_score"`
	RequiredNumbers int    `json:"required_numbers"`
	RequiredScore   int    `json:"required_score"`
	MissingNumbers  int    `json:"missing_numbers,omitempty"`
	MissingScore    int    `json:"missing_score,omitempty"`
}

type ScoreSummary struct {
	TotalActualNumbers int `json:"total_actual_numbers"`
	TotalActualScore   int `json:"total_actual_score"`
	RequiredNumbers    int `json:"required_numbers"`
	RequiredScore      int `json:"required_score"`
}

type EligibilityReport struct {
	Type         string           `json:"type"`
	Eligible     bool             `json:"eligible"`
	Categories   []CategoryResult `json:"categories"`
	Missing      []string         `json:"missing"`
	ScoreSummary ScoreSummary     `json:"score_summary"`
}

// CalculateEligibility scores a profile against the rubric. Weighting:
// single-authored papers 3 points, joint papers 1, PhD supervision 3,
// masters supervision 1, workshops 1. Eligibility requires both footer
// totals to be met.
func CalculateEligibility(profile AcademicSnapshot) EligibilityReport {
	publicationScore := profile.SingleAuthoredPublications*3 +
		(profile.PublicationsCount-profile.SingleAuthoredPublications)*1
	supervisionScore := profile.SupervisedPhdStudents*3 + profile.SupervisedMastersStudents*1
	professionalScore := profile.WorkshopsOrganized * 1

	report := EligibilityReport{
		Type:    "promotion_eligibility",
		Missing: []string{},
	}

	for _, category := range PromotionTableLecturerToAP.Categories {
		requiredNumbers := 0
		requiredScore := 0
		for _, row := range category.Rows {
			requiredNumbers += row.MinRequiredNumbers
			requiredScore += row.MinRequiredScore
		}

		var actualNumbers, actualScore int
		switch category.Title {
		case "Publication Records":
			actualNumbers = profile.PublicationsCount
			actualScore = publicationScore
		case "Supervision Records":
			actualNumbers = profile.SupervisedPhdStudents + profile.SupervisedMastersStudents
			actualScore = supervisionScore
		case "Professional Activities Records":
			actualNumbers = profile.WorkshopsOrganized
			actualScore = professionalScore
		}

		result := CategoryResult{
			Title:           category.Title,
			ActualNumbers:   actualNumbers,
			ActualScore:     actualScore,
			RequiredNumbers: requiredNumbers,
			RequiredScore:   requiredScore,
		}

		if actualNumbers < requiredNumbers {
			result.MissingNumbers = requiredNumbers - actualNumbers
			report.Missing = append(report.Missing,
				fmt.Sprintf("%s: Missing %d numbers", category.Title, requiredNumbers-actualNumbers))
		}
		if actualScore < requiredScore {
			result.MissingScore = requiredScore - actualScore
			report.Missing = append(report.Missing,
				fmt.Sprintf("%s: Missing %d weighted score", category.Title, requiredScore-actualScore))
		}

		report.Categories = append(report.Categories, result)
	}

	summary := ScoreSummary{
		RequiredNumbers: PromotionTableLecturerToAP.Footer.OverallTotalNumbers,
		RequiredScore:   PromotionTableLecturerToAP.Footer.OverallTotalScore,
	}
	for _, c := range report.Categories {
		summary.TotalActualNumbers += c.ActualNumbers
		summary.TotalActualScore += c.ActualScore
	}
	report.ScoreSummary = summary

	report.Eligible = summary.TotalActualNumbers >= summary.RequiredNumbers &&
		summary.TotalActualScore >= summary.RequiredScore

	return report
}

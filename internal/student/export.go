package student

import (
	"strconv"

	"student-roster/internal/export"
)

var (
	studentColumns          = []string{"Student ID", "Full Name", "Programme", "Level", "GPA", "Email", "Phone", "Date Added", "Status"}
	topPerformerColumns     = []string{"Rank", "Student ID", "Full Name", "Programme", "Level", "GPA"}
	atRiskColumns           = []string{"Student ID", "Full Name", "Programme", "Level", "GPA", "Status"}
	programmeSummaryColumns = []string{"Programme", "Total Students", "Average GPA"}
)

// StudentsTable lays students out in import column order, so an exported
// file can be imported again.
func StudentsTable(students []Student) export.Table {
	rows := make([][]string, len(students))
	for i := range students {
		s := &students[i]
		rows[i] = []string{
			s.ID,
			s.FullName,
			s.Programme,
			strconv.Itoa(s.Level),
			export.FormatGPA(s.GPA),
			s.Email,
			s.PhoneNumber,
			s.DateAdded.String(),
			s.Status,
		}
	}
	return export.Table{Sheet: "Students", Header: studentColumns, Rows: rows}
}

// TopPerformersTable ranks from 1 in the given order.
func TopPerformersTable(students []Student) export.Table {
	rows := make([][]string, len(students))
	for i := range students {
		s := &students[i]
		rows[i] = []string{
			strconv.Itoa(i + 1),
			s.ID,
			s.FullName,
			s.Programme,
			strconv.Itoa(s.Level),
			export.FormatGPA(s.GPA),
		}
	}
	return export.Table{Sheet: "Top Performers", Header: topPerformerColumns, Rows: rows}
}

func AtRiskTable(students []Student) export.Table {
	rows := make([][]string, len(students))
	for i := range students {
		s := &students[i]
		rows[i] = []string{
			s.ID,
			s.FullName,
			s.Programme,
			strconv.Itoa(s.Level),
			export.FormatGPA(s.GPA),
			s.Status,
		}
	}
	return export.Table{Sheet: "At Risk", Header: atRiskColumns, Rows: rows}
}

func ProgrammeSummaryTable(summary []ProgrammeStats) export.Table {
	rows := make([][]string, len(summary))
	for i, p := range summary {
		rows[i] = []string{
			p.Programme,
			strconv.Itoa(p.StudentCount),
			export.FormatAverage(p.AverageGPA),
		}
	}
	return export.Table{Sheet: "Programme Summary", Header: programmeSummaryColumns, Rows: rows}
}

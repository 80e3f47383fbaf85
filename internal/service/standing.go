package service

import (
	"math"
	"sort"

	"github.com/noah-isme/academic-workflow-api/internal/models"
)

// ComputeStanding derives SGPA per semester and the running CGPA from the
// student's enrollment rows. It is pure: the same rows and scale always yield
// the same standing. Sums are kept raw and rounded only when emitted.
func ComputeStanding(studentID string, rows []models.StandingRow, scale models.GradeScale) models.AcademicStanding {
	ordered := make([]models.StandingRow, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.SemesterStart.Equal(b.SemesterStart) {
			return a.SemesterStart.Before(b.SemesterStart)
		}
		if a.SemesterID != b.SemesterID {
			return a.SemesterID < b.SemesterID
		}
		if a.CourseCode != b.CourseCode {
			return a.CourseCode < b.CourseCode
		}
		return a.OfferingID < b.OfferingID
	})

	standing := models.AcademicStanding{StudentID: studentID, Semesters: []models.SemesterStanding{}}
	var cumPoints, cumCredits float64
	allLocked := true

	for i := 0; i < len(ordered); {
		semesterID := ordered[i].SemesterID
		semester := models.SemesterStanding{
			SemesterID:   semesterID,
			SemesterName: ordered[i].SemesterName,
			Final:        ordered[i].SemesterLocked,
			Courses:      []models.StandingCourse{},
		}
		var points, credits float64
		for ; i < len(ordered) && ordered[i].SemesterID == semesterID; i++ {
			row := ordered[i]
			course, ok := standingCourse(row, scale)
			if !ok {
				continue
			}
			semester.EnrolledCredits += row.Credits
			if course.Counted {
				points += course.GradePoints * row.Credits
				credits += row.Credits
			}
			semester.Courses = append(semester.Courses, course)
		}
		if len(semester.Courses) == 0 {
			continue
		}
		cumPoints += points
		cumCredits += credits
		semester.SGPA = ratio(points, credits)
		semester.Credits = credits
		semester.CGPAAsOf = ratio(cumPoints, cumCredits)
		allLocked = allLocked && semester.Final
		standing.Semesters = append(standing.Semesters, semester)
	}

	standing.CGPA = ratio(cumPoints, cumCredits)
	standing.Credits = cumCredits
	standing.Final = len(standing.Semesters) > 0 && allLocked
	return standing
}

// standingCourse converts a row into a course line. Withdrawn courses without
// an approved grade are not part of the record.
func standingCourse(row models.StandingRow, scale models.GradeScale) (models.StandingCourse, bool) {
	course := models.StandingCourse{
		OfferingID:  row.OfferingID,
		CourseCode:  row.CourseCode,
		CourseTitle: row.CourseTitle,
		Credits:     row.Credits,
		Status:      row.Status,
		Grade:       row.Grade,
	}
	switch row.Status {
	case models.EnrollmentStatusEnrolled:
	case models.EnrollmentStatusWithdrawn:
		if row.Grade == nil {
			return course, false
		}
	default:
		return course, false
	}
	if row.Grade == nil {
		return course, true
	}
	entry, ok := scale[*row.Grade]
	if !ok || !entry.CountsTowardGPA {
		return course, true
	}
	course.GradePoints = entry.Points
	course.Counted = true
	return course, true
}

func ratio(points, credits float64) float64 {
	if credits == 0 {
		return 0
	}
	return roundHalfEven(points / credits)
}

// roundHalfEven rounds to two decimals using banker's rounding.
func roundHalfEven(value float64) float64 {
	return math.RoundToEven(value*100) / 100
}

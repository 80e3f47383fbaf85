package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

type stubViewer struct {
	standing *models.AcademicStanding
	err      error
}

func (s stubViewer) View(ctx context.Context, actor models.Actor, studentID string) (*models.AcademicStanding, error) {
	return s.standing, s.err
}

func sampleStanding() *models.AcademicStanding {
	grade := "A"
	return &models.AcademicStanding{
		StudentID: "s1",
		CGPA:      4,
		Credits:   3,
		Final:     true,
		Semesters: []models.SemesterStanding{{
			SemesterID:   "sem-1",
			SemesterName: "2024 Odd",
			SGPA:         4,
			CGPAAsOf:     4,
			Courses: []models.StandingCourse{
				{CourseCode: "CS101", CourseTitle: "Programming", Credits: 3, Status: models.EnrollmentStatusEnrolled, Grade: &grade, GradePoints: 4, Counted: true},
				{CourseCode: "MA101", CourseTitle: "Calculus", Credits: 4, Status: models.EnrollmentStatusEnrolled},
			},
		}},
	}
}

func TestTranscriptCSV(t *testing.T) {
	svc := NewExportService(stubViewer{standing: sampleStanding()}, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC) }

	result, err := svc.Transcript(context.Background(), studentActor, "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "transcript-s1-20250131.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Contains(t, string(result.Data), "2024 Odd,CS101,Programming,3.00,enrolled,A,4.00,4.00,4.00")
	assert.Contains(t, string(result.Data), "2024 Odd,MA101,Calculus,4.00,enrolled,,0.00,4.00,4.00")
}

func TestTranscriptFormats(t *testing.T) {
	svc := NewExportService(stubViewer{standing: sampleStanding()}, nil, nil)

	pdf, err := svc.Transcript(context.Background(), adminActor, "s1", "PDF")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF")))

	xlsx, err := svc.Transcript(context.Background(), adminActor, "s1", "xlsx")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(xlsx.Data, []byte("PK")))

	_, err = svc.Transcript(context.Background(), adminActor, "s1", "docx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.CodeOf(err))
}

func TestTranscriptPropagatesAccessErrors(t *testing.T) {
	svc := NewExportService(stubViewer{err: appErrors.ErrForbidden}, nil, nil)
	_, err := svc.Transcript(context.Background(), student2Actor, "s1", "csv")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

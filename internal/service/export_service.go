package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
	"github.com/noah-isme/academic-workflow-api/pkg/export"
)

type standingViewer interface {
	View(ctx context.Context, actor models.Actor, studentID string) (*models.AcademicStanding, error)
}

// ExportResult is a rendered document ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders transcripts from academic standings.
type ExportService struct {
	standings standingViewer
	renderers export.Registry
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. A nil registry uses every built-in format.
func NewExportService(standings standingViewer, renderers export.Registry, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderers == nil {
		renderers = export.DefaultRegistry()
	}
	return &ExportService{
		standings: standings,
		renderers: renderers,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Transcript renders the student's standing in the requested format.
func (s *ExportService) Transcript(ctx context.Context, actor models.Actor, studentID, format string) (*ExportResult, error) {
	if format == "" {
		format = string(export.FormatCSV)
	}
	renderer, err := s.renderers.Lookup(export.Format(strings.ToLower(format)))
	if err != nil {
		return nil, validationError(err, "unsupported transcript format")
	}
	standing, err := s.standings.View(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}

	data, err := renderer.Render(transcriptDataset(standing))
	if err != nil {
		s.logger.Error("transcript render failed", zap.String("student_id", studentID), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("transcript-%s-%s.%s", studentID, s.now().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

func transcriptDataset(standing *models.AcademicStanding) export.Dataset {
	data := export.Dataset{
		Title: "Academic Transcript",
		Meta: [][2]string{
			{"Student", standing.StudentID},
			{"CGPA", formatPoints(standing.CGPA)},
			{"Credits", formatPoints(standing.Credits)},
			{"Final", strconv.FormatBool(standing.Final)},
		},
		Headers: []string{"Semester", "Course", "Title", "Credits", "Status", "Grade", "Points", "SGPA", "CGPA"},
	}
	for _, semester := range standing.Semesters {
		for _, course := range semester.Courses {
			grade := ""
			if course.Grade != nil {
				grade = *course.Grade
			}
			data.Rows = append(data.Rows, []string{
				semester.SemesterName,
				course.CourseCode,
				course.CourseTitle,
				formatPoints(course.Credits),
				string(course.Status),
				grade,
				formatPoints(course.GradePoints),
				formatPoints(semester.SGPA),
				formatPoints(semester.CGPAAsOf),
			})
		}
	}
	return data
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

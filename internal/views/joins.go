// Package views builds the denormalized read models the dashboard pages
// render: students with their parents, courses with their teacher, and the
// unified user list.
package views

import (
	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/live"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
)

// StudentView is a student with its parent records resolved.
type StudentView struct {
	models.Student
	Parents []models.Parent `json:"parents"`
}

// CourseView is a course with its teacher summary resolved. Teacher is nil
// when the course points at no existing teacher.
type CourseView struct {
	models.Course
	Teacher *models.TeacherSummary `json:"teacher"`
}

// JoinStudentsWithParents resolves ParentIDs against parents, keeping the
// order of ParentIDs. Ids without a matching parent are skipped. The result
// is nil while either input is nil.
func JoinStudentsWithParents(students []models.Student, parents []models.Parent) []StudentView {
	if students == nil || parents == nil {
		return nil
	}

	byID := make(map[string]models.Parent, len(parents))
	for _, p := range parents {
		byID[p.ID] = p
	}

	views := make([]StudentView, 0, len(students))
	for _, s := range students {
		resolved := make([]models.Parent, 0, len(s.ParentIDs))
		for _, id := range s.ParentIDs {
			if p, ok := byID[id]; ok {
				resolved = append(resolved, p)
			}
		}
		views = append(views, StudentView{Student: s, Parents: resolved})
	}
	return views
}

// JoinCoursesWithTeachers attaches the teacher summary to every course. The
// result is nil while either input is nil.
func JoinCoursesWithTeachers(courses []models.Course, teachers []models.Teacher) []CourseView {
	if courses == nil || teachers == nil {
		return nil
	}

	byID := make(map[string]models.Teacher, len(teachers))
	for _, t := range teachers {
		byID[t.ID] = t
	}

	views := make([]CourseView, 0, len(courses))
	for _, c := range courses {
		view := CourseView{Course: c}
		if t, ok := byID[c.TeacherID]; ok {
			summary := t.Summary()
			view.Teacher = &summary
		}
		views = append(views, view)
	}
	return views
}

// StudentViews follows students and parents and recomputes the join on every
// emission of either.
func StudentViews(students live.Observable[accessors.Result[models.Student]], parents live.Observable[accessors.Result[models.Parent]]) *live.Derived[accessors.Result[StudentView]] {
	return live.Derive2(students, parents, func(s accessors.Result[models.Student], p accessors.Result[models.Parent]) accessors.Result[StudentView] {
		return combine(s, p, JoinStudentsWithParents)
	})
}

// CourseViews follows courses and teachers.
func CourseViews(courses live.Observable[accessors.Result[models.Course]], teachers live.Observable[accessors.Result[models.Teacher]]) *live.Derived[accessors.Result[CourseView]] {
	return live.Derive2(courses, teachers, func(c accessors.Result[models.Course], t accessors.Result[models.Teacher]) accessors.Result[CourseView] {
		return combine(c, t, JoinCoursesWithTeachers)
	})
}

// combine joins two accessor results. The combined result is loading while
// either side has no data yet and carries the first error seen.
func combine[A, B, R any](a accessors.Result[A], b accessors.Result[B], join func([]A, []B) []R) accessors.Result[R] {
	err := a.Err
	if err == nil {
		err = b.Err
	}
	data := join(a.Data, b.Data)
	return accessors.Result[R]{
		Data:      data,
		IsLoading: data == nil && err == nil,
		Err:       err,
	}
}

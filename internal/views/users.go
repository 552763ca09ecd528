package views

import (
	"sort"
	"strings"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/live"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
)

// SourceCollection tags which collection a User was read from.
type SourceCollection string

const (
	SourceTeachers SourceCollection = models.CollectionTeachers
	SourceParents  SourceCollection = models.CollectionParents
)

// User is either a teacher or a parent. Exactly one of Teacher and Parent is
// set, matching SourceCollection.
type User struct {
	ID               string           `json:"id"`
	FirstName        string           `json:"first_name"`
	LastName         string           `json:"last_name"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	PhotoURL         string           `json:"photo_url"`
	Role             models.StaffRole `json:"role"`
	SourceCollection SourceCollection `json:"source_collection"`

	Teacher *models.Teacher `json:"-"`
	Parent  *models.Parent  `json:"-"`
}

func (u User) SortKey() string {
	return u.LastName + " " + u.FirstName
}

func UserFromTeacher(t models.Teacher) User {
	return User{
		ID:               t.ID,
		FirstName:        t.FirstName,
		LastName:         t.LastName,
		Email:            t.Email,
		Phone:            t.Phone,
		PhotoURL:         t.PhotoURL,
		Role:             t.RoleOrDefault(),
		SourceCollection: SourceTeachers,
		Teacher:          &t,
	}
}

// UserFromParent always yields RoleGuardian.
func UserFromParent(p models.Parent) User {
	return User{
		ID:               p.ID,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Email:            p.Email,
		Phone:            p.Phone,
		PhotoURL:         p.PhotoURL,
		Role:             models.RoleGuardian,
		SourceCollection: SourceParents,
		Parent:           &p,
	}
}

// MergeUsers lists every teacher and every parent as a User, ordered by
// "{last} {first}" byte-wise. A teacher and a parent sharing an id stay two
// entries. The result is nil while either input is nil.
func MergeUsers(teachers []models.Teacher, parents []models.Parent) []User {
	if teachers == nil || parents == nil {
		return nil
	}

	users := make([]User, 0, len(teachers)+len(parents))
	for _, t := range teachers {
		users = append(users, UserFromTeacher(t))
	}
	for _, p := range parents {
		users = append(users, UserFromParent(p))
	}

	sort.SliceStable(users, func(i, j int) bool {
		return strings.Compare(users[i].SortKey(), users[j].SortKey()) < 0
	})
	return users
}

// Users follows teachers and parents.
func Users(teachers live.Observable[accessors.Result[models.Teacher]], parents live.Observable[accessors.Result[models.Parent]]) *live.Derived[accessors.Result[User]] {
	return live.Derive2(teachers, parents, func(t accessors.Result[models.Teacher], p accessors.Result[models.Parent]) accessors.Result[User] {
		return combine(t, p, MergeUsers)
	})
}

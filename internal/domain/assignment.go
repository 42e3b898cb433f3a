package domain

// Department identifies the organizational unit a grievance is routed to.
// Departments correspond 1:1 with grievance categories.
type Department string

const (
	DepartmentAcademic       Department = "ACADEMIC"
	DepartmentAdministrative Department = "ADMINISTRATIVE"
	DepartmentHostel         Department = "HOSTEL"
	DepartmentExamination    Department = "EXAMINATION"
)

// ValidDepartment reports enum membership.
func ValidDepartment(d Department) bool {
	switch d {
	case DepartmentAcademic, DepartmentAdministrative, DepartmentHostel, DepartmentExamination:
		return true
	}
	return false
}

var categoryDepartments = map[GrievanceCategory]Department{
	CategoryAcademic:       DepartmentAcademic,
	CategoryAdministrative: DepartmentAdministrative,
	CategoryHostel:         DepartmentHostel,
	CategoryExamination:    DepartmentExamination,
}

// DepartmentForCategory resolves the department responsible for a category.
func DepartmentForCategory(c GrievanceCategory) Department {
	return categoryDepartments[c]
}

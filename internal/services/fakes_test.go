package services

import (
	"strings"
	"time"

	"lotus_planning_backend/internal/models"
	"lotus_planning_backend/internal/repositories"
)

// In-memory repository fakes. The SQLExecutor argument is ignored; service
// tests only care about the data flow, not the SQL.

type fakeEventRepo struct {
	events        map[int64]*models.Event
	nextID        int64
	updateErr     error
	notifications []models.EventNotification
	updated       []models.Event
}

func newFakeEventRepo(events ...*models.Event) *fakeEventRepo {
	repo := &fakeEventRepo{events: map[int64]*models.Event{}, nextID: 1}
	for _, event := range events {
		if event.ID == 0 {
			event.ID = repo.nextID
		}
		if event.ID >= repo.nextID {
			repo.nextID = event.ID + 1
		}
		repo.events[event.ID] = event
	}
	return repo
}

func (r *fakeEventRepo) CreateEvent(_ repositories.SQLExecutor, event *models.Event) (*models.Event, error) {
	event.ID = r.nextID
	r.nextID++
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	r.events[event.ID] = event
	return event, nil
}

func (r *fakeEventRepo) GetEventByID(id int64) (*models.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *event
	return &clone, nil
}

func (r *fakeEventRepo) GetEvents(page, pageSize int, status *string) ([]models.Event, int, error) {
	events := []models.Event{}
	for _, event := range r.events {
		if status != nil && *status != "" && string(event.Status) != *status {
			continue
		}
		events = append(events, *event)
	}
	return events, len(events), nil
}

func (r *fakeEventRepo) GetUpcomingEvents() ([]models.Event, error) { return nil, nil }

func (r *fakeEventRepo) GetEventsByDateRange(startDate, endDate time.Time) ([]models.Event, error) {
	return nil, nil
}

func (r *fakeEventRepo) GetEventsByCustomerID(customerID int64) ([]models.Event, error) {
	events := []models.Event{}
	for _, event := range r.events {
		if event.CustomerID != nil && *event.CustomerID == customerID {
			events = append(events, *event)
		}
	}
	return events, nil
}

func (r *fakeEventRepo) UpdateEvent(_ repositories.SQLExecutor, event *models.Event) (*models.Event, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	if _, ok := r.events[event.ID]; !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *event
	r.events[event.ID] = &clone
	r.updated = append(r.updated, clone)
	result := clone
	return &result, nil
}

func (r *fakeEventRepo) DeleteEvent(_ repositories.SQLExecutor, id int64) error {
	if _, ok := r.events[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) RecordNotification(_ repositories.SQLExecutor, notification *models.EventNotification) error {
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *fakeEventRepo) HasNotification(eventID int64, kind models.NotificationKind) (bool, error) {
	for _, notification := range r.notifications {
		if notification.EventID == eventID && notification.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

type fakeShiftRepo struct {
	shifts  map[int64]*models.Shift
	nextID  int64
	created []models.Shift
}

func newFakeShiftRepo(shifts ...*models.Shift) *fakeShiftRepo {
	repo := &fakeShiftRepo{shifts: map[int64]*models.Shift{}, nextID: 1}
	for _, shift := range shifts {
		if shift.ID == 0 {
			shift.ID = repo.nextID
		}
		if shift.ID >= repo.nextID {
			repo.nextID = shift.ID + 1
		}
		repo.shifts[shift.ID] = shift
	}
	return repo
}

func (r *fakeShiftRepo) CreateShift(_ repositories.SQLExecutor, shift *models.Shift) (*models.Shift, error) {
	shift.ID = r.nextID
	r.nextID++
	r.shifts[shift.ID] = shift
	r.created = append(r.created, *shift)
	return shift, nil
}

func (r *fakeShiftRepo) GetShiftByID(id int64) (*models.Shift, error) {
	shift, ok := r.shifts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *shift
	return &clone, nil
}

func (r *fakeShiftRepo) GetShiftsByEventID(eventID int64) ([]models.Shift, error) {
	shifts := []models.Shift{}
	for _, shift := range r.shifts {
		if shift.EventID == eventID {
			shifts = append(shifts, *shift)
		}
	}
	return shifts, nil
}

func (r *fakeShiftRepo) GetUpcomingShifts() ([]models.Shift, error) { return nil, nil }

func (r *fakeShiftRepo) UpdateShift(_ repositories.SQLExecutor, shift *models.Shift) (*models.Shift, error) {
	if _, ok := r.shifts[shift.ID]; !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *shift
	r.shifts[shift.ID] = &clone
	result := clone
	return &result, nil
}

func (r *fakeShiftRepo) DeleteShift(_ repositories.SQLExecutor, id int64) error {
	if _, ok := r.shifts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.shifts, id)
	return nil
}

type fakeStaffRepo struct {
	staff  map[int64]*models.Staff
	nextID int64
}

func newFakeStaffRepo(staffMembers ...*models.Staff) *fakeStaffRepo {
	repo := &fakeStaffRepo{staff: map[int64]*models.Staff{}, nextID: 1}
	for _, staff := range staffMembers {
		if staff.ID == 0 {
			staff.ID = repo.nextID
		}
		if staff.ID >= repo.nextID {
			repo.nextID = staff.ID + 1
		}
		repo.staff[staff.ID] = staff
	}
	return repo
}

func (r *fakeStaffRepo) CreateStaff(_ repositories.SQLExecutor, staff *models.Staff) (*models.Staff, error) {
	staff.ID = r.nextID
	r.nextID++
	staff.IsActive = true
	r.staff[staff.ID] = staff
	return staff, nil
}

func (r *fakeStaffRepo) GetStaffByID(id int64) (*models.Staff, error) {
	staff, ok := r.staff[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *staff
	return &clone, nil
}

func (r *fakeStaffRepo) GetStaffByEmail(email string) (*models.Staff, error) {
	for _, staff := range r.staff {
		if strings.EqualFold(staff.Email, email) {
			clone := *staff
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeStaffRepo) GetStaffByUserID(userID int64) (*models.Staff, error) {
	for _, staff := range r.staff {
		if staff.UserID != nil && *staff.UserID == userID {
			clone := *staff
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeStaffRepo) GetStaff(page, pageSize int, searchTerm *string, activeOnly bool) ([]models.Staff, int, error) {
	staffMembers := []models.Staff{}
	for _, staff := range r.staff {
		if activeOnly && !staff.IsActive {
			continue
		}
		staffMembers = append(staffMembers, *staff)
	}
	return staffMembers, len(staffMembers), nil
}

func (r *fakeStaffRepo) GetActiveStaff() ([]models.Staff, error) {
	staffMembers := []models.Staff{}
	for _, staff := range r.staff {
		if staff.IsActive {
			staffMembers = append(staffMembers, *staff)
		}
	}
	return staffMembers, nil
}

func (r *fakeStaffRepo) UpdateStaff(_ repositories.SQLExecutor, staff *models.Staff) (*models.Staff, error) {
	if _, ok := r.staff[staff.ID]; !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *staff
	r.staff[staff.ID] = &clone
	result := clone
	return &result, nil
}

func (r *fakeStaffRepo) DeactivateStaff(_ repositories.SQLExecutor, id int64) error {
	staff, ok := r.staff[id]
	if !ok {
		return repositories.ErrNotFound
	}
	staff.IsActive = false
	return nil
}

type fakeAssignmentRepo struct {
	assignments map[int64]*models.StaffAssignment
	nextID      int64
}

func newFakeAssignmentRepo(assignments ...*models.StaffAssignment) *fakeAssignmentRepo {
	repo := &fakeAssignmentRepo{assignments: map[int64]*models.StaffAssignment{}, nextID: 1}
	for _, assignment := range assignments {
		if assignment.ID == 0 {
			assignment.ID = repo.nextID
		}
		if assignment.ID >= repo.nextID {
			repo.nextID = assignment.ID + 1
		}
		repo.assignments[assignment.ID] = assignment
	}
	return repo
}

func (r *fakeAssignmentRepo) CreateAssignment(_ repositories.SQLExecutor, assignment *models.StaffAssignment) (*models.StaffAssignment, error) {
	assignment.ID = r.nextID
	r.nextID++
	assignment.AssignedAt = time.Now()
	assignment.UpdatedAt = assignment.AssignedAt
	r.assignments[assignment.ID] = assignment
	return assignment, nil
}

func (r *fakeAssignmentRepo) GetAssignmentByID(id int64) (*models.StaffAssignment, error) {
	assignment, ok := r.assignments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *assignment
	return &clone, nil
}

func (r *fakeAssignmentRepo) GetAllAssignments() ([]models.StaffAssignment, error) {
	assignments := []models.StaffAssignment{}
	for _, assignment := range r.assignments {
		assignments = append(assignments, *assignment)
	}
	return assignments, nil
}

func (r *fakeAssignmentRepo) GetAssignmentsByShiftID(shiftID int64) ([]models.StaffAssignment, error) {
	assignments := []models.StaffAssignment{}
	for _, assignment := range r.assignments {
		if assignment.ShiftID == shiftID {
			assignments = append(assignments, *assignment)
		}
	}
	return assignments, nil
}

func (r *fakeAssignmentRepo) GetAssignmentsByStaffID(staffID int64) ([]models.StaffAssignment, error) {
	assignments := []models.StaffAssignment{}
	for _, assignment := range r.assignments {
		if assignment.StaffID == staffID {
			assignments = append(assignments, *assignment)
		}
	}
	return assignments, nil
}

func (r *fakeAssignmentRepo) GetConfirmedAssignmentsByStaffID(staffID int64) ([]models.StaffAssignment, error) {
	assignments := []models.StaffAssignment{}
	for _, assignment := range r.assignments {
		if assignment.StaffID == staffID && assignment.Status == models.AssignmentStatusConfirmed {
			assignments = append(assignments, *assignment)
		}
	}
	return assignments, nil
}

func (r *fakeAssignmentRepo) UpdateAssignment(_ repositories.SQLExecutor, assignment *models.StaffAssignment) (*models.StaffAssignment, error) {
	if _, ok := r.assignments[assignment.ID]; !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *assignment
	r.assignments[assignment.ID] = &clone
	result := clone
	return &result, nil
}

func (r *fakeAssignmentRepo) DeleteAssignment(_ repositories.SQLExecutor, id int64) error {
	if _, ok := r.assignments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.assignments, id)
	return nil
}

type fakeCustomerRepo struct {
	customers map[int64]*models.Customer
	nextID    int64
}

func newFakeCustomerRepo(customers ...*models.Customer) *fakeCustomerRepo {
	repo := &fakeCustomerRepo{customers: map[int64]*models.Customer{}, nextID: 1}
	for _, customer := range customers {
		if customer.ID == 0 {
			customer.ID = repo.nextID
		}
		if customer.ID >= repo.nextID {
			repo.nextID = customer.ID + 1
		}
		repo.customers[customer.ID] = customer
	}
	return repo
}

func (r *fakeCustomerRepo) CreateCustomer(_ repositories.SQLExecutor, customer *models.Customer) (*models.Customer, error) {
	customer.ID = r.nextID
	r.nextID++
	r.customers[customer.ID] = customer
	return customer, nil
}

func (r *fakeCustomerRepo) GetCustomerByID(id int64) (*models.Customer, error) {
	customer, ok := r.customers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *customer
	return &clone, nil
}

func (r *fakeCustomerRepo) GetCustomerByEmail(email string) (*models.Customer, error) {
	for _, customer := range r.customers {
		if strings.EqualFold(customer.Email, email) {
			clone := *customer
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeCustomerRepo) GetCustomerByUserID(userID int64) (*models.Customer, error) {
	for _, customer := range r.customers {
		if customer.UserID != nil && *customer.UserID == userID {
			clone := *customer
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeCustomerRepo) GetCustomers(page, pageSize int, searchTerm *string) ([]models.Customer, int, error) {
	customers := []models.Customer{}
	for _, customer := range r.customers {
		customers = append(customers, *customer)
	}
	return customers, len(customers), nil
}

func (r *fakeCustomerRepo) UpdateCustomer(_ repositories.SQLExecutor, customer *models.Customer) (*models.Customer, error) {
	if _, ok := r.customers[customer.ID]; !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *customer
	r.customers[customer.ID] = &clone
	result := clone
	return &result, nil
}

func (r *fakeCustomerRepo) DeleteCustomer(_ repositories.SQLExecutor, id int64) error {
	if _, ok := r.customers[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.customers, id)
	return nil
}

type fakeAuthRepo struct {
	users  map[int64]*models.User
	hashes map[int64]string
	nextID int64
}

func newFakeAuthRepo(users ...*models.User) *fakeAuthRepo {
	repo := &fakeAuthRepo{users: map[int64]*models.User{}, hashes: map[int64]string{}, nextID: 1}
	for _, user := range users {
		if user.ID == 0 {
			user.ID = repo.nextID
		}
		if user.ID >= repo.nextID {
			repo.nextID = user.ID + 1
		}
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeAuthRepo) CreateUser(_ repositories.SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return 0, repositories.ErrDuplicateKey
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.IsActive = true
	r.users[user.ID] = user
	r.hashes[user.ID] = hashedPassword
	return user.ID, nil
}

func (r *fakeAuthRepo) FindUserByUsername(username string) (*models.User, string, error) {
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, r.hashes[user.ID], nil
		}
	}
	return nil, "", repositories.ErrNotFound
}

func (r *fakeAuthRepo) FindUserByID(userID int64) (*models.User, error) {
	user, ok := r.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeAuthRepo) FindUserByEmail(email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email != nil && strings.EqualFold(*user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeAuthRepo) SetUserCustomerID(_ repositories.SQLExecutor, userID int64, customerID *int64) error {
	user, ok := r.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.CustomerID = customerID
	return nil
}

// fakeEmailService records sent notifications and can simulate failures.
type fakeEmailService struct {
	plannedErr error
	invoiceErr error

	plannedSent    []int64
	invoiceSent    []int64
	financialSent  []int64
	assignmentSent []int64
}

func (s *fakeEmailService) SendEventPlannedNotification(event *models.Event) error {
	if s.plannedErr != nil {
		return s.plannedErr
	}
	s.plannedSent = append(s.plannedSent, event.ID)
	return nil
}

func (s *fakeEmailService) SendEventInvoiceNotification(event *models.Event) error {
	if s.invoiceErr != nil {
		return s.invoiceErr
	}
	s.invoiceSent = append(s.invoiceSent, event.ID)
	return nil
}

func (s *fakeEmailService) SendFinancialInvoiceNotification(event *models.Event) error {
	if s.invoiceErr != nil {
		return s.invoiceErr
	}
	s.financialSent = append(s.financialSent, event.ID)
	return nil
}

func (s *fakeEmailService) SendStaffAssignmentNotification(staff *models.Staff, shift *models.Shift, event *models.Event) error {
	s.assignmentSent = append(s.assignmentSent, staff.ID)
	return nil
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func intPtr(n int) *int { return &n }

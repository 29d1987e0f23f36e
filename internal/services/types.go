package services

import "time"

// User is an account as the API returns it
type User struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role" validate:"omitempty,oneof=admin user"`
	Phone       string    `json:"phone,omitempty"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserTotals are the summary counters on the admin users page
type UserTotals struct {
	Total  int `json:"total"`
	Admins int `json:"admins"`
	Users  int `json:"users"`
}

// UserPage is the nested {users, totals} payload of the admin users list
type UserPage struct {
	Users  []User     `json:"users" validate:"required,dive"`
	Totals UserTotals `json:"totals"`
}

// LoginRequest is the login form
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the payload of a successful login
type LoginResult struct {
	Token string `json:"token" validate:"required"`
	User  User   `json:"user"`
}

// RegisterRequest is the registration form
type RegisterRequest struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Phone                string `json:"phone,omitempty"`
	DateOfBirth          string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Product is a catalog item
type Product struct {
	ID                   int64     `json:"id" validate:"required"`
	Name                 string    `json:"name" validate:"required"`
	Description          string    `json:"description"`
	Price                float64   `json:"price" validate:"gte=0"`
	Stock                int       `json:"stock"`
	Category             string    `json:"category"`
	ImageURL             string    `json:"image_url,omitempty"`
	RequiresPrescription bool      `json:"requires_prescription"`
	CreatedAt            time.Time `json:"created_at"`
}

// ProductInput is the admin create/update form
type ProductInput struct {
	Name                 string  `json:"name" validate:"required"`
	Description          string  `json:"description"`
	Price                float64 `json:"price" validate:"gte=0"`
	Stock                int     `json:"stock" validate:"gte=0"`
	Category             string  `json:"category"`
	RequiresPrescription bool    `json:"requires_prescription"`
}

// Order statuses
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// OrderItem is one line of an order
type OrderItem struct {
	ProductID   int64   `json:"product_id" validate:"required"`
	ProductName string  `json:"product_name,omitempty"`
	Quantity    int     `json:"quantity" validate:"gt=0"`
	Price       float64 `json:"price"`
}

// Order is a placed order
type Order struct {
	ID        int64       `json:"id" validate:"required"`
	UserID    int64       `json:"user_id"`
	Status    string      `json:"status" validate:"required"`
	Total     float64     `json:"total"`
	Items     []OrderItem `json:"items" validate:"dive"`
	Address   *Address    `json:"address,omitempty"`
	Notes     string      `json:"notes,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreateOrderRequest is the checkout form
type CreateOrderRequest struct {
	Items     []OrderItem `json:"items" validate:"required,min=1,dive"`
	AddressID int64       `json:"address_id" validate:"required"`
	Notes     string      `json:"notes,omitempty"`
}

// OrderTotals are the summary counters on the admin orders page
type OrderTotals struct {
	Total      int     `json:"total"`
	Pending    int     `json:"pending"`
	Processing int     `json:"processing"`
	Shipped    int     `json:"shipped"`
	Delivered  int     `json:"delivered"`
	Cancelled  int     `json:"cancelled"`
	Revenue    float64 `json:"revenue"`
}

// OrderPage is the nested {orders, totals} payload of the admin orders list
type OrderPage struct {
	Orders []Order     `json:"orders" validate:"required,dive"`
	Totals OrderTotals `json:"totals"`
}

// Ticket statuses
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

// Attachment is a file attached to a ticket
type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// TicketReply is one message in a ticket thread
type TicketReply struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

// Ticket is a support ticket
type Ticket struct {
	ID          int64         `json:"id" validate:"required"`
	UserID      int64         `json:"user_id"`
	Subject     string        `json:"subject" validate:"required"`
	Message     string        `json:"message"`
	Status      string        `json:"status" validate:"required"`
	Priority    string        `json:"priority"`
	Replies     []TicketReply `json:"replies,omitempty"`
	Attachments []Attachment  `json:"attachments,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// TicketTotals are the summary counters on the admin tickets page
type TicketTotals struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
	Closed     int `json:"closed"`
}

// TicketPage is the nested {tickets, totals} payload of the admin tickets list
type TicketPage struct {
	Tickets []Ticket     `json:"tickets" validate:"required,dive"`
	Totals  TicketTotals `json:"totals"`
}

// Question is one questionnaire item
type Question struct {
	ID       int64    `json:"id" validate:"required"`
	Text     string   `json:"text" validate:"required"`
	Type     string   `json:"type" validate:"required,oneof=text yes_no choice"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
}

// Questionnaire is the medical intake form
type Questionnaire struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions" validate:"required,dive"`
}

// Answer is one questionnaire answer
type Answer struct {
	QuestionID int64  `json:"question_id" validate:"required"`
	Answer     string `json:"answer"`
}

// QuestionnaireSubmission is the submitted questionnaire
type QuestionnaireSubmission struct {
	Answers []Answer `json:"answers" validate:"required,min=1,dive"`
}

// Address is a shipping address
type Address struct {
	ID         int64  `json:"id"`
	Label      string `json:"label,omitempty"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
	IsDefault  bool   `json:"is_default"`
}

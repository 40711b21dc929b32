// Package navigation owns the storefront's current page and the session
// context objects that depend on it, and guards transitions that would
// discard in-progress work behind an explicit confirmation step.
package navigation

// Page identifies one storefront screen.
type Page string

const (
	Landing            Page = "landing"
	Events             Page = "events"
	Help               Page = "help"
	Dashboard          Page = "dashboard"
	Home               Page = "home"
	EventDetail        Page = "eventDetail"
	Checkout           Page = "checkout"
	PaymentLoading     Page = "paymentLoading"
	TransactionSuccess Page = "transactionSuccess"
	TicketDisplay      Page = "ticketDisplay"
)

var pages = map[Page]struct{}{
	Landing: {}, Events: {}, Help: {}, Dashboard: {}, Home: {},
	EventDetail: {}, Checkout: {}, PaymentLoading: {},
	TransactionSuccess: {}, TicketDisplay: {},
}

// ParsePage converts a wire name into a Page.
func ParsePage(s string) (Page, bool) {
	p := Page(s)
	_, ok := pages[p]
	return p, ok
}

// IsBrowse reports whether entering the page drops every booking context.
func (p Page) IsBrowse() bool {
	switch p {
	case Landing, Events, Help, Dashboard, Home:
		return true
	}
	return false
}

func (p Page) String() string { return string(p) }

// fallbackFor is where a transition lands when the target lacks its
// required context. The chain always terminates at Landing.
func fallbackFor(p Page) Page {
	switch p {
	case PaymentLoading:
		return Checkout
	case Checkout:
		return EventDetail
	default:
		return Landing
	}
}

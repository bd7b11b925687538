package domain

// BookingStatus enumerates booking lifecycle states.
type BookingStatus string

// Booking states. BookingFree is derived for an empty slot and never persisted.
const (
	BookingFree      BookingStatus = "free"
	BookingPending   BookingStatus = "pending"
	BookingBooked    BookingStatus = "booked"
	BookingFinished  BookingStatus = "finished"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

// Persisted reports whether the status may be stored on a record.
func (s BookingStatus) Persisted() bool {
	switch s {
	case BookingPending, BookingBooked, BookingFinished, BookingRejected, BookingCancelled:
		return true
	case BookingFree:
		return false
	}
	return false
}

// Active reports whether a booking in this status occupies its slot.
func (s BookingStatus) Active() bool {
	switch s {
	case BookingPending, BookingBooked, BookingFinished:
		return true
	case BookingFree, BookingRejected, BookingCancelled:
		return false
	}
	return false
}

// Terminal reports whether no further transition leaves the status.
func (s BookingStatus) Terminal() bool {
	return s == BookingRejected || s == BookingCancelled
}

// BookingEvent is an event applied to a booking.
type BookingEvent string

// Booking events. BookingEventFinish is raised only by consumption approval.
const (
	BookingEventApprove BookingEvent = "approve"
	BookingEventReject  BookingEvent = "reject"
	BookingEventCancel  BookingEvent = "cancel"
	BookingEventFinish  BookingEvent = "finish"
)

// Valid reports whether the event is known.
func (e BookingEvent) Valid() bool {
	switch e {
	case BookingEventApprove, BookingEventReject, BookingEventCancel, BookingEventFinish:
		return true
	}
	return false
}

// RequiresReason reports whether the event must carry a non-empty reason.
func (e BookingEvent) RequiresReason() bool {
	return e == BookingEventReject || e == BookingEventCancel
}

// NextBookingStatus returns the state reached by applying event in from.
func NextBookingStatus(from BookingStatus, event BookingEvent) (BookingStatus, bool) {
	switch from {
	case BookingPending:
		switch event {
		case BookingEventApprove:
			return BookingBooked, true
		case BookingEventReject:
			return BookingRejected, true
		}
	case BookingBooked:
		if event == BookingEventFinish {
			return BookingFinished, true
		}
	case BookingFinished:
		if event == BookingEventCancel {
			return BookingCancelled, true
		}
	case BookingFree, BookingRejected, BookingCancelled:
	}
	return from, false
}

// BookingTransitionAllowed reports whether a stored booking may move from one status to another.
func BookingTransitionAllowed(from, to BookingStatus) bool {
	if from == to {
		return true
	}
	for _, event := range []BookingEvent{BookingEventApprove, BookingEventReject, BookingEventCancel, BookingEventFinish} {
		if next, ok := NextBookingStatus(from, event); ok && next == to {
			return true
		}
	}
	return false
}

// RequestStatus enumerates recharge and consumption request states.
type RequestStatus string

// Request states.
const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Valid reports whether the status is known.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// Terminal reports whether the request has been decided.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// RequestEvent is a leader decision on a request.
type RequestEvent string

// Request events.
const (
	RequestEventApprove RequestEvent = "approve"
	RequestEventReject  RequestEvent = "reject"
)

// Valid reports whether the event is known.
func (e RequestEvent) Valid() bool {
	return e == RequestEventApprove || e == RequestEventReject
}

// NextRequestStatus returns the state reached by applying event in from.
func NextRequestStatus(from RequestStatus, event RequestEvent) (RequestStatus, bool) {
	if from != RequestPending {
		return from, false
	}
	switch event {
	case RequestEventApprove:
		return RequestApproved, true
	case RequestEventReject:
		return RequestRejected, true
	}
	return from, false
}

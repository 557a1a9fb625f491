package enum

type PaymentType string

const (
	PaymentTypeOneTime   PaymentType = "onetime"
	PaymentTypeRecurring PaymentType = "recurring"
)

func (pt PaymentType) Valid() bool {
	return pt == PaymentTypeOneTime || pt == PaymentTypeRecurring
}

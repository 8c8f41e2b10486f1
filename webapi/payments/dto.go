package payments

import (
	"time"

	"github.com/amirasaad/railpay/pkg/domain/intent"
	"github.com/amirasaad/railpay/pkg/scoring"
	"github.com/amirasaad/railpay/pkg/service/execution"
	"github.com/amirasaad/railpay/pkg/service/resolution"
)

// ResolveRequest describes the payment to resolve a rail for.
type ResolveRequest struct {
	Kind     string  `json:"kind" validate:"required,oneof=pay_merchant send_money request_money pay_bill"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`

	MerchantRef   string   `json:"merchant_ref,omitempty"`
	MerchantRails []string `json:"merchant_rails,omitempty"`
	RecipientRef  string   `json:"recipient_ref,omitempty"`
	RequesterRef  string   `json:"requester_ref,omitempty"`
	BillerRef     string   `json:"biller_ref,omitempty"`
	BillerRails   []string `json:"biller_rails,omitempty"`
}

func (r *ResolveRequest) details() (intent.Details, error) {
	switch intent.Kind(r.Kind) {
	case intent.KindPayMerchant:
		return intent.MerchantPayment{
			MerchantRef:   r.MerchantRef,
			MerchantRails: r.MerchantRails,
		}, nil
	case intent.KindSendMoney:
		return intent.P2PSend{RecipientRef: r.RecipientRef}, nil
	case intent.KindRequestMoney:
		return intent.MoneyRequest{RequesterRef: r.RequesterRef}, nil
	case intent.KindPayBill:
		return intent.BillPayment{
			BillerRef:   r.BillerRef,
			BillerRails: r.BillerRails,
		}, nil
	default:
		return nil, intent.ErrDetailsRequired
	}
}

// ConfirmRequest carries the user's confirmation gesture.
type ConfirmRequest struct {
	// Acknowledged must be true when the plan requires an extra
	// confirmation before it may execute.
	Acknowledged bool `json:"acknowledged"`
}

// StepView is one planned execution step.
type StepView struct {
	Kind     string  `json:"kind"`
	RailID   string  `json:"rail_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// StatusView is the API view of a payment's execution state and plan.
type StatusView struct {
	IntentID      string              `json:"intent_id"`
	State         string              `json:"state"`
	Action        string              `json:"action"`
	ChosenRailID  string              `json:"chosen_rail_id,omitempty"`
	FallbackChain []string            `json:"fallback_chain,omitempty"`
	Steps         []StepView          `json:"steps,omitempty"`
	Explanation   string              `json:"explanation,omitempty"`
	BlockedReason string              `json:"blocked_reason,omitempty"`
	Executable    bool                `json:"executable"`
	Scores        []scoring.RailScore `json:"scores,omitempty"`
	Attempt       int                 `json:"attempt"`
	FailedRails   []string            `json:"failed_rails,omitempty"`
	FailReason    string              `json:"fail_reason,omitempty"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func newStatusView(snap execution.Snapshot, plan *resolution.Plan) StatusView {
	view := StatusView{
		IntentID:      snap.IntentID.String(),
		State:         string(snap.State),
		Action:        string(snap.Action),
		ChosenRailID:  snap.ChosenRailID,
		FallbackChain: snap.FallbackChain,
		Explanation:   snap.Explanation,
		BlockedReason: snap.BlockedReason,
		Executable:    snap.Executable,
		Attempt:       snap.Attempt,
		FailedRails:   snap.FailedRails,
		FailReason:    snap.FailReason,
		UpdatedAt:     snap.UpdatedAt,
	}
	if plan == nil {
		return view
	}
	view.Scores = plan.Scores
	for _, step := range plan.Steps {
		view.Steps = append(view.Steps, StepView{
			Kind:     string(step.Kind),
			RailID:   step.SourceID,
			Amount:   step.Amount.AmountFloat(),
			Currency: string(step.Amount.Code()),
		})
	}
	return view
}

package documents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/odyssey-erp/catering/internal/settings"
)

// DocumentsIntegrationTestSuite walks a catering job from quote to payment.
type DocumentsIntegrationTestSuite struct {
	suite.Suite
	ts  *testService
	cfg settings.Settings
	ctx context.Context
}

func (s *DocumentsIntegrationTestSuite) SetupTest() {
	s.ts = newTestService()
	s.cfg = taxedSettings()
	s.ctx = context.Background()
}

func TestDocumentsIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(DocumentsIntegrationTestSuite))
}

func (s *DocumentsIntegrationTestSuite) TestQuoteToCashWorkflow() {
	// Step 1: draft and send the first quotation
	q, err := s.ts.CreateQuotation(s.ctx, QuotationRequest{
		ClientID: testClientID,
		Title:    "Company family day",
		Items:    []LineRequest{menuLine(buffetMenuID, "100"), line("Tent rental", "1", "800")},
	}, s.cfg)
	s.Require().NoError(err)
	_, _, err = s.ts.FinalizeQuotation(s.ctx, q.ID, s.cfg)
	s.Require().NoError(err)

	// Step 2: client asks for a discount, so revise and resend
	rev, err := s.ts.CreateRevision(s.ctx, q.ID)
	s.Require().NoError(err)
	rev, err = s.ts.UpdateQuotation(s.ctx, rev.ID, QuotationRequest{
		ClientID: testClientID,
		Title:    rev.Title,
		Discount: DiscountRequest{Kind: "FIXED", Value: d("300")},
		Items:    []LineRequest{menuLine(buffetMenuID, "100"), line("Tent rental", "1", "800")},
	})
	s.Require().NoError(err)
	_, _, err = s.ts.FinalizeQuotation(s.ctx, rev.ID, s.cfg)
	s.Require().NoError(err)
	rev, err = s.ts.AcceptQuotation(s.ctx, rev.ID)
	s.Require().NoError(err)

	totals := rev.Totals(s.cfg.Tax())
	s.Equal("6800.00", fixed(totals.Subtotal))
	s.Equal("6500.00", fixed(totals.TotalBeforeTax))
	s.Equal("390.00", fixed(totals.TaxAmount))
	s.Equal("6890.00", fixed(totals.GrandTotal))

	// Step 3: convert to an order and run it
	order, err := s.ts.CreateOrderFromQuotation(s.ctx, rev.ID)
	s.Require().NoError(err)
	s.Equal(OrderStatusConfirmed, order.Status)
	order, err = s.ts.StartOrder(s.ctx, order.ID)
	s.Require().NoError(err)

	// Step 4: deliver food in two drops
	buffet := order.Items[0].ID
	first, err := s.ts.CreateDeliveryOrder(s.ctx, DeliveryOrderRequest{
		OrderID: order.ID, Items: []DeliveryItemRequest{{OrderItemID: buffet, Quantity: d("60")}},
	})
	s.Require().NoError(err)
	second, err := s.ts.CreateDeliveryOrder(s.ctx, DeliveryOrderRequest{
		OrderID: order.ID, Items: []DeliveryItemRequest{{OrderItemID: buffet, Quantity: d("40")}},
	})
	s.Require().NoError(err)
	for _, id := range []int64{first.ID, second.ID} {
		_, err = s.ts.DispatchDeliveryOrder(s.ctx, id)
		s.Require().NoError(err)
		_, err = s.ts.MarkDelivered(s.ctx, id)
		s.Require().NoError(err)
	}
	_, err = s.ts.CreateDeliveryOrder(s.ctx, DeliveryOrderRequest{
		OrderID: order.ID, Items: []DeliveryItemRequest{{OrderItemID: buffet, Quantity: d("1")}},
	})
	s.ErrorIs(err, ErrQuantityExceeds)

	order, err = s.ts.CompleteOrder(s.ctx, order.ID)
	s.Require().NoError(err)

	// Step 5: invoice the order and collect payment
	inv, _, err := s.ts.CreateInvoiceFromOrder(s.ctx, order.ID, s.cfg)
	s.Require().NoError(err)
	inv, _, err = s.ts.FinalizeInvoice(s.ctx, inv.ID, s.cfg)
	s.Require().NoError(err)
	s.Equal("6890.00", fixed(inv.Totals(s.cfg.Tax()).GrandTotal))

	_, inv, err = s.ts.AddPayment(s.ctx, inv.ID, PaymentRequest{Amount: d("3445"), Method: "BANK"}, s.cfg)
	s.Require().NoError(err)
	s.Equal(InvoiceStatusPartiallyPaid, inv.Status)
	_, inv, err = s.ts.AddPayment(s.ctx, inv.ID, PaymentRequest{Amount: d("3445"), Method: "BANK"}, s.cfg)
	s.Require().NoError(err)
	s.Equal(InvoiceStatusPaid, inv.Status)
	s.Equal("0.00", fixed(inv.Totals(s.cfg.Tax()).BalanceDue))

	// Step 6: a tent panel was torn, credit part of the rental
	cn, err := s.ts.CreateCreditNote(s.ctx, CreditNoteRequest{
		ClientID:  testClientID,
		InvoiceID: &inv.ID,
		Reason:    "Damaged tent panel",
		Items:     []CreditNoteItemRequest{{InvoiceItemID: &inv.Items[1].ID, Quantity: d("1"), UnitPrice: ptr(d("150"))}},
	})
	s.Require().NoError(err)
	cn, err = s.ts.IssueCreditNote(s.ctx, cn.ID)
	s.Require().NoError(err)
	s.Equal("Tent rental", cn.Items[0].Description)
	s.Equal("159.00", fixed(cn.Totals(s.cfg.Tax()).GrandTotal))

	// Step 7: the audit trail saw every step
	actions := s.ts.audit.actions()
	for _, want := range []string{
		"quotation.supersede", "quotation.accept", "order.create", "order.complete",
		"delivery_order.deliver", "invoice.finalize", "payment.create", "invoice.reconcile", "credit_note.issue",
	} {
		s.Contains(actions, want)
	}
}

func (s *DocumentsIntegrationTestSuite) TestRejectedQuotationCanBeRevised() {
	q, err := s.ts.CreateQuotation(s.ctx, QuotationRequest{
		ClientID: testClientID,
		Title:    "Hi-tea",
		Items:    []LineRequest{line("Hi-tea set", "30", "18")},
	}, s.cfg)
	s.Require().NoError(err)
	_, _, err = s.ts.FinalizeQuotation(s.ctx, q.ID, s.cfg)
	s.Require().NoError(err)
	_, err = s.ts.RejectQuotation(s.ctx, q.ID)
	s.Require().NoError(err)

	rev, err := s.ts.CreateRevision(s.ctx, q.ID)
	s.Require().NoError(err)
	s.Equal(2, rev.Version)

	rev2, err := s.ts.CreateRevision(s.ctx, rev.ID)
	s.ErrorIs(err, ErrIllegalTransition, "drafts are edited in place")
	s.Nil(rev2)

	list, total, err := s.ts.ListQuotations(s.ctx, QuotationFilter{ClientID: testClientID})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Equal(QuotationStatusDraft, list[0].Status)
	s.Equal(QuotationStatusSuperseded, list[1].Status)
}

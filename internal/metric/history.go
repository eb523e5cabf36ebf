package metric

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/xfey-rate-tracker/internal/history"
	"github.com/yourorg/xfey-rate-tracker/internal/model"
)

// RecordHistory returns an after-fetch hook appending each fresh conversion rate to
// store. A failed append is logged and counted; the fetched rate is still served.
func RecordHistory(store history.Store, m *Metrics) func(ctx context.Context, rate model.ConversionRate) {
	return func(ctx context.Context, rate model.ConversionRate) {
		m.setConversionRate(rate.ConversionRate)

		err := history.AppendDetached(ctx, store, rate)
		m.ObserveHistoryWrite(err)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"fey_amount": rate.FeyAmount,
				"error":      err,
			}).Error("Error saving historical data")
		}
	}
}

package sheets

import (
	"go.uber.org/zap"

	"customer_insights/internal/customers"
)

// ClosableSource is a transaction source holding resources that must be released.
type ClosableSource interface {
	customers.Source
	Close() error
}

// OpenSource opens the workbook at path, or a Remote for remoteURL. It
// returns nil when neither is set.
func OpenSource(workbook, remoteURL string, logger *zap.Logger) (ClosableSource, error) {
	switch {
	case workbook != "":
		wb, err := OpenWorkbook(workbook, logger)
		if err != nil {
			return nil, err
		}
		return wb, nil
	case remoteURL != "":
		return NewRemote(remoteURL, logger), nil
	default:
		return nil, nil
	}
}

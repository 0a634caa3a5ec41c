package tasks

import (
	"context"
	"log"

	"autobuy_panel_echo/internal/models"
)

const (
	SweepTransactionsTaskID = "sweep_transactions"
	CleanupDiscountsTaskID  = "cleanup_discounts"
)

// TransactionSweeper removes expired in-flight transactions
type TransactionSweeper interface {
	Sweep() []models.Transaction
}

// DiscountCleaner deletes expired discounts
type DiscountCleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

type SweepTransactionsTaskDef struct {
	Transactions TransactionSweeper
}

func (t *SweepTransactionsTaskDef) TaskID() string {
	return SweepTransactionsTaskID
}

func (t *SweepTransactionsTaskDef) HandleExecution(ctx context.Context) (map[string]interface{}, error) {
	removed := t.Transactions.Sweep()
	ids := make([]string, 0, len(removed))
	for _, tx := range removed {
		ids = append(ids, tx.ID)
	}
	return map[string]interface{}{
		"removed": len(removed),
		"ids":     ids,
	}, nil
}

type CleanupDiscountsTaskDef struct {
	Discounts DiscountCleaner
}

func (t *CleanupDiscountsTaskDef) TaskID() string {
	return CleanupDiscountsTaskID
}

func (t *CleanupDiscountsTaskDef) HandleExecution(ctx context.Context) (map[string]interface{}, error) {
	deleted, err := t.Discounts.CleanupExpired(ctx)
	if err != nil {
		return nil, err
	}
	if deleted > 0 {
		log.Printf("Cleaned up %d expired discounts", deleted)
	}
	return map[string]interface{}{"deleted": deleted}, nil
}

// DefineTasks registers all available tasks
func DefineTasks(registry *Registry, transactions TransactionSweeper, discounts DiscountCleaner) {
	sweep := &SweepTransactionsTaskDef{Transactions: transactions}
	registry.Register(sweep.TaskID(), sweep.HandleExecution)

	cleanup := &CleanupDiscountsTaskDef{Discounts: discounts}
	registry.Register(cleanup.TaskID(), cleanup.HandleExecution)
}

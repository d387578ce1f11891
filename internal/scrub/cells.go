package scrub

import (
	"context"
	"fmt"
	"time"

	"github.com/scrubward/scrubward/internal/receipts"
	"github.com/scrubward/scrubward/internal/types"
)

// Cell is one addressable unit of structural content, e.g. a spreadsheet
// cell keyed by its coordinate.
type Cell struct {
	Coordinate string
	Content    string
}

// CellsRequest scrubs a set of cells as one operation.
type CellsRequest struct {
	Cells       []Cell
	Tier        types.Tier
	Actor       string
	SessionID   string
	Receiptless bool
}

// CellsResult carries the scrubbed cells plus the operation record. The
// receipt snapshots the cells in their canonical flat form (one
// "coordinate<TAB>content" line per cell, input order) so reversal splices
// against stable offsets.
type CellsResult struct {
	Cells     []Cell
	Operation types.ScrubOperation
}

// FlattenCells renders cells in the canonical flat form used for hashing
// and receipt snapshots.
func FlattenCells(cells []Cell) string {
	var out []byte
	for _, c := range cells {
		out = append(out, c.Coordinate...)
		out = append(out, '\t')
		out = append(out, c.Content...)
		out = append(out, '\n')
	}
	return string(out)
}

// ScrubCells runs the pipeline per cell, accumulating all entities into one
// operation with one receipt and one audit entry. Entity spans are
// cell-local and tagged with the cell coordinate.
func (o *Orchestrator) ScrubCells(ctx context.Context, req CellsRequest) (*CellsResult, error) {
	if err := validate(Request{Tier: req.Tier, Actor: req.Actor}); err != nil {
		return nil, err
	}
	for _, c := range req.Cells {
		if c.Coordinate == "" {
			return nil, fmt.Errorf("%w: cell without coordinate", ErrValidation)
		}
	}
	started := time.Now()

	scrubbed := make([]Cell, len(req.Cells))
	var entities []types.Entity
	var entries []receipts.Entry
	degraded := false
	offset := 0
	for i, c := range req.Cells {
		unit, err := o.processUnit(ctx, c.Content, c.Coordinate)
		if err != nil {
			return nil, err
		}
		scrubbed[i] = Cell{Coordinate: c.Coordinate, Content: unit.scrubbed}
		entities = append(entities, unit.entities...)
		degraded = degraded || unit.degraded

		// Rebase output spans from cell-local to flat-form offsets.
		cellStart := offset + len(c.Coordinate) + 1
		for _, e := range unit.entries {
			e.OutSpan.Start += cellStart
			e.OutSpan.End += cellStart
			entries = append(entries, e)
		}
		offset += len(c.Coordinate) + 1 + len(unit.scrubbed) + 1
	}

	op := o.newOperation(Request{
		Tier: req.Tier, Actor: req.Actor, SessionID: req.SessionID, Receiptless: req.Receiptless,
	}, unitResult{entities: entities, degraded: degraded})
	op.OriginalHash = sha256Hex(FlattenCells(req.Cells))
	op.ScrubbedHash = sha256Hex(FlattenCells(scrubbed))

	if err := o.persistAndLog(Request{Receiptless: req.Receiptless}, op, FlattenCells(scrubbed), entries); err != nil {
		return nil, err
	}
	o.logger().Info("cell scrub complete",
		"operation", op.OperationID,
		"cells", len(req.Cells),
		"entities", len(op.Entities),
		"took", time.Since(started))
	return &CellsResult{Cells: scrubbed, Operation: op}, nil
}

package loader

import (
	"context"
	"os"

	"tenantetl/internal/dbctl"
	"tenantetl/internal/errs"
)

// LoadRawFile submits one Parquet blob to Stream Load byte-for-byte,
// bypassing Converter/Transformer/Validate/Reorder entirely: Parquet's
// embedded schema is trusted to already match the destination table's
// column order (internal/pipeline routes .parquet blobs here instead of
// through row conversion). Truncate-before-load still applies under
// StrategyDimensionFullRefresh, same ordering invariant as the row-converted
// path in Load.
func LoadRawFile(ctx context.Context, conn *dbctl.Conn, client *StreamLoadClient, path string, req LoadRequest) (Outcome, error) {
	var out Outcome

	if req.Strategy == StrategyDimensionFullRefresh {
		if err := conn.TruncateTable(ctx, req.Table); err != nil {
			return out, err
		}
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return out, errs.New(errs.KindLoad, errs.ReasonPermanent, req.Table, path, err)
	}

	cfg := req.StreamLoad
	cfg.Table = req.Table
	cfg.SendColumnsHeader = false

	result, err := client.SubmitRaw(ctx, cfg, body, "parquet", req.TenantSlug, 0, req.WallClockDate, 3)
	if err != nil {
		return out, err
	}
	out.ChunksSubmitted = 1
	out.RowsLoaded = result.NumberLoadedRows
	out.RowsFiltered = result.NumberFilteredRows
	return out, nil
}

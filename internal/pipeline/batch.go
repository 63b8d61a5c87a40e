package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/specscrape/internal/model"
)

// processBrands calls fn for every brand with at most p.workers calls in
// flight. Brands start in page order. The first error cancels the brands
// still running and is returned.
func (p *Pipeline) processBrands(ctx context.Context, brands []model.Brand, fn func(context.Context, model.Brand) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, brand := range brands {
		// Stop handing out brands once the run is cancelled or failed.
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			p.logger.Debug("brand started",
				"brand", brand.Name,
				"index", i+1,
				"total", len(brands),
			)
			return fn(gctx, brand)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// A parent cancellation with no failing brand still ends the run early.
	return ctx.Err()
}

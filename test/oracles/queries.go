package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_single_identity_per_email",
			SQL: `SELECT lower(email), COUNT(*) FROM users
                  GROUP BY lower(email) HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_paid_offer_has_transaction",
			SQL:  `SELECT id, status FROM offers WHERE status = 'paid' AND transaction_id = ''`,
		},
		{
			Name: "O3_no_self_offers",
			SQL:  `SELECT id FROM offers WHERE buyer_email = agent_email`,
		},
		{
			Name: "O4_single_wishlist_entry",
			SQL: `SELECT buyer_email, property_id FROM wishlist
                  GROUP BY buyer_email, property_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O5_ads_never_on_pending",
			SQL: `SELECT a.id FROM advertisements a
                  JOIN properties p ON p.id = a.property_id
                  WHERE p.verification_status = 'pending'`,
		},
		{
			Name: "O6_offer_amount_guard",
			SQL: `SELECT 'missing_offer_amount_guard' AS detail
                  WHERE NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'offers_amount_immutable')`,
		},
		{
			Name: "O7_transaction_settles_one_offer",
			SQL: `SELECT transaction_id, COUNT(*) FROM offers
                  WHERE transaction_id <> ''
                  GROUP BY transaction_id HAVING COUNT(*) > 1`,
		},
	}
}

// Settled adds the checks that only hold once every fraud cascade has
// completed; mid-cascade the banned role is visible before the stock is gone.
func Settled() []Oracle {
	return append(All(), Oracle{
		Name: "O8_no_stock_for_fraud",
		SQL: `SELECT 'property' AS kind, p.id FROM properties p
              JOIN users u ON u.email = p.agent_email WHERE u.role = 'fraud'
              UNION ALL
              SELECT 'advertisement', a.id FROM advertisements a
              JOIN users u ON u.email = a.agent_email WHERE u.role = 'fraud'`,
	})
}

// Run executes All and returns the first failure (name and sample row text)
// or an empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	return RunSet(ctx, pool, All())
}

func RunSet(ctx context.Context, pool *pgxpool.Pool, set []Oracle) (string, string, error) {
	for _, o := range set {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		if rows.Next() {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
	}
	return "", "", nil
}

package queries

const (
	magicLinkColumns = `id::text, email, issued_at, expires_at, consumed_at IS NOT NULL, COALESCE(consumed_at, issued_at), COALESCE(request_ip, ''), COALESCE(user_agent, '')`

	// Insert Queries
	CreateMagicLinkQuery = `INSERT INTO magic_links (id, email, issued_at, expires_at, request_ip, user_agent) VALUES ($1::uuid, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`

	// Update Queries
	ConsumeMagicLinkQuery = `UPDATE magic_links SET consumed_at = $2 WHERE id = $1::uuid AND consumed_at IS NULL RETURNING email`

	// Select Queries
	FindMagicLinkByIDQuery         = `SELECT ` + magicLinkColumns + ` FROM magic_links WHERE id = $1::uuid`
	FindMagicLinkConsumedFlagQuery = `SELECT consumed_at IS NOT NULL FROM magic_links WHERE id = $1::uuid`

	// Delete Queries
	DeleteExpiredMagicLinksQuery = `DELETE FROM magic_links WHERE id IN (SELECT id FROM magic_links WHERE consumed_at IS NULL AND expires_at < $1 ORDER BY expires_at LIMIT $2 FOR UPDATE SKIP LOCKED) RETURNING ` + magicLinkColumns
)

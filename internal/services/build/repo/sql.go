package repo

const (
	sqlGetSite = `
SELECT id, business_name, phone, website, reviews_account_ref, reviews_location_ref,
       status, build_progress, COALESCE(status_message, ''), status_updated_at
  FROM sites
 WHERE id = $1`

	sqlLockState = `
SELECT status, build_progress, COALESCE(status_message, ''), status_updated_at
  FROM sites
 WHERE id = $1
   FOR UPDATE`

	sqlSaveState = `
UPDATE sites
   SET status = $2, build_progress = $3, status_message = NULLIF($4, ''), status_updated_at = $5
 WHERE id = $1`

	sqlLocations = `
SELECT id, name, address, city, state, phone, is_primary
  FROM site_locations
 WHERE site_id = $1
 ORDER BY sort_order, created_at, id`

	sqlCategories = `
SELECT id, name, gbp_category, is_primary, sort_order
  FROM site_categories
 WHERE site_id = $1
 ORDER BY sort_order, created_at, id`

	sqlServices = `
SELECT id, COALESCE(category_id, '00000000-0000-0000-0000-000000000000'::uuid), name, description, sort_order
  FROM site_services
 WHERE site_id = $1
 ORDER BY sort_order, created_at, id`

	sqlAreas = `
SELECT id, city, state, sort_order
  FROM site_service_areas
 WHERE site_id = $1
 ORDER BY sort_order, created_at, id`

	sqlClaimLease = `
UPDATE sites
   SET build_lease_owner = $2, build_lease_expires_at = now() + ($3)::interval
 WHERE id = $1
   AND (build_lease_owner IS NULL OR build_lease_expires_at <= now())
RETURNING true`

	sqlReleaseLease = `
UPDATE sites
   SET build_lease_owner = NULL, build_lease_expires_at = NULL
 WHERE id = $1 AND build_lease_owner = $2`

	sqlUpsertPage = `
INSERT INTO site_pages (site_id, slug, kind, category_id, content, run_id, generated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (site_id, slug) DO UPDATE
   SET kind = EXCLUDED.kind,
       category_id = EXCLUDED.category_id,
       content = EXCLUDED.content,
       run_id = EXCLUDED.run_id,
       generated_at = EXCLUDED.generated_at`

	sqlUpsertService = `
INSERT INTO service_content (service_id, site_id, content, run_id, generated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (service_id) DO UPDATE
   SET content = EXCLUDED.content,
       run_id = EXCLUDED.run_id,
       generated_at = EXCLUDED.generated_at`

	sqlUpsertArea = `
INSERT INTO service_area_content (area_id, site_id, content, run_id, generated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (area_id) DO UPDATE
   SET content = EXCLUDED.content,
       run_id = EXCLUDED.run_id,
       generated_at = EXCLUDED.generated_at`

	sqlUpsertReviews = `
INSERT INTO site_reviews (site_id, average_rating, total_count, reviews, fetched_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (site_id) DO UPDATE
   SET average_rating = EXCLUDED.average_rating,
       total_count = EXCLUDED.total_count,
       reviews = EXCLUDED.reviews,
       fetched_at = EXCLUDED.fetched_at`

	sqlListPages    = `SELECT slug FROM site_pages WHERE site_id = $1 ORDER BY slug`
	sqlListServices = `SELECT service_id FROM service_content WHERE site_id = $1 ORDER BY service_id`
	sqlListAreas    = `SELECT area_id FROM service_area_content WHERE site_id = $1 ORDER BY area_id`
)

// Package http exposes the site API on a chi router.
//
// Read routes:
//   - GET /navigation, /navigation/menu, /navigation/footer
//   - GET /navigation/breadcrumbs/{keyword}
//   - GET /pages/* resolves the path and renders HTML (?format=json returns nodes)
//   - GET /api/pages and /api/pages/{id}/content serve the page source wire format
//
// Write routes, guarded by an API key when one is configured:
//   - GET /preview, PUT /preview/{keyword}, DELETE /preview/{keyword}
//   - POST /navigation/refresh, POST /content/invalidate, POST /content/import
//
// Every read route accepts ?language=; the default language is used otherwise.
package http

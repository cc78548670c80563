// Package http implements the HTTP handlers of the fish production service.
// Handlers stay thin: they decode and validate requests, delegate to the
// dataset service and render JSON or file downloads.
//
// # Routes
//
//	POST   /api/sessions                          create a session
//	DELETE /api/sessions/{sessionID}              close it
//	PUT    /api/sessions/{sessionID}/dataset      upload (multipart "file" or raw body)
//	GET    /api/sessions/{sessionID}/dataset      ingestion metadata
//	GET    /api/sessions/{sessionID}/records      filtered records
//	GET    /api/sessions/{sessionID}/facets       filter options
//	GET    /api/sessions/{sessionID}/kpis         KPI summary
//	GET    /api/sessions/{sessionID}/trend        monthly trend
//	GET    /api/sessions/{sessionID}/top-species  ranking, ?n=10
//	GET    /api/sessions/{sessionID}/yearly       yearly totals
//	GET    /api/sessions/{sessionID}/pivot        month x year matrix
//	GET    /api/sessions/{sessionID}/report       all of the above in one document
//	GET    /api/sessions/{sessionID}/export.csv   download, also export.xlsx
//
// Filters travel as repeatable query parameters: ?year=2021&year=2022&month=Januari&species=Tuna.
//
// # Error Handling
//
// All errors are RFC 7807 problem documents produced by errors.ErrorHandler.
// A rejected upload answers 422 with the parse kind, the missing columns and
// a format example as extensions:
//
//	{
//	    "type": "/errors/dataset/ingestion-failed",
//	    "title": "Dataset Rejected",
//	    "status": 422,
//	    "error_code": "INGESTION_FAILED",
//	    "kind": "schema",
//	    "missing": ["Volume Produced (kg)"]
//	}
package http

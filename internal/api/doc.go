// Package api exposes the coven-desk HTTP surface.
//
// Routes:
//
//	GET    /health
//	POST   /api/sessions
//	GET    /api/sessions
//	GET    /api/sessions/{sessionID}
//	PUT    /api/sessions/{sessionID}
//	DELETE /api/sessions/{sessionID}
//	GET    /api/sessions/{sessionID}/messages
//	POST   /api/sessions/{sessionID}/messages
//	POST   /api/files/upload
//	GET    /api/files
//	GET    /api/files/{fileID}
//	GET    /api/files/{fileID}/download
//	DELETE /api/files/{fileID}
//	GET    /ws/{sessionID}
//
// Message submission is synchronous: the POST returns after the assistant
// response has fully resolved. Clients that want progress as it happens
// subscribe to /ws/{sessionID}, which streams assistant_response and
// file_update events for that session only.
package api

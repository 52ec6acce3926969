package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	// Session lifecycle
	DocOpenDescription = `Open a PDF document and start a viewer session with the first page rendered.

**When to use:** Before any other viewer operation. Every session starts here.

**Why it's useful:** Resolves local paths and http(s) URLs, validates the document, and returns a session handle plus the initial viewport state in one call.

**Examples:**
• Review an extracted invoice: "Open invoices/inv-2024-001.pdf and show the first page"
• Inspect a remote document: "Open https://example.com/contract.pdf"
• Jump straight to a page: "Open report.pdf at page 12"

**Common workflows:**
1. Field Review: doc_open → doc_locate_fields → doc_render_page → inspect highlights
2. Document Browsing: doc_open → doc_set_page / doc_set_zoom → doc_close
3. Remote Verification: doc_open (URL) → doc_text_layer → compare against expected values

**Best practices:** Keep the returned session_id for all follow-up calls, and close sessions you no longer need so their document handles are released.`

	DocRenderPageDescription = `Render a page of an open session and return the bitmap as base64 PNG.

**When to use:** Whenever the caller needs the actual page image, for display or for visual inspection of highlight placement.

**Why it's useful:** Renders at the session's discrete zoom level, updates the text layer and highlight boxes for the new page, and returns the viewport state alongside the image.

**Examples:**
• Show the page a field was found on: "Render page 3 so the vendor highlight is visible"
• Zoomed detail check: "Render page 1 at zoom_index 5 (200%) to read the small print"

**Common workflows:**
1. Highlight Review: doc_locate_fields → doc_render_page → overlay the returned boxes
2. Page Flipping: doc_render_page for each page of interest

**Best practices:** Page numbers out of range are clamped, not rejected. Omit zoom_index to keep the current zoom.`

	DocSetPageDescription = `Navigate a session to a page without returning the bitmap.

**When to use:** Moving through a document when only the viewport state (page, text layer, highlights) matters, not the rendered image.

**Why it's useful:** Cheaper than doc_render_page for text-layer or highlight queries, while still rendering internally so the session state stays consistent.

**Examples:**
• Walk a document: "Go to page 7, then list its text fragments"
• Prepare a field search: "Set page 2 before locating the total amount"

**Best practices:** Out-of-range pages are clamped to the document bounds. Setting the current page again is a no-op.`

	DocSetZoomDescription = `Switch a session's zoom level by discrete zoom table index.

**When to use:** Before rendering when the default 100% view is too coarse or too large.

**Why it's useful:** Zoom is a fixed table (50% to 400%), so canvas sizes are predictable and highlight coordinates stay normalized regardless of the level chosen.

**Examples:**
• Read dense tables: "Set zoom_index 6 (300%) on the line-item page"
• Fit an overview: "Set zoom_index 0 (50%) to see the whole layout"

**Best practices:** Indexes outside the table are clamped to the nearest bound. Setting the current index again is a no-op.`

	DocLocateFieldsDescription = `Locate extracted field values on the current page and compute normalized highlight boxes.

**When to use:** After extracting field values from a document (vendor name, dates, amounts), to show the user where each value came from.

**Why it's useful:** Matches values against the page text layer with exact, substring, multi-fragment and numeric-tolerant strategies, and returns page-relative boxes that survive zoom and resize.

**Examples:**
• Verify an extraction: "Highlight 'Acme Corp' and '1,234.56' on the invoice page"
• Audit trail: "Show where the contract date 2024-03-15 appears"

**Common workflows:**
1. Extraction Review: extract fields upstream → doc_locate_fields → doc_render_page → visual check
2. Reconciliation: locate both the expected and the extracted value → compare boxes

**Best practices:** Values that cannot be located simply get no box; check located vs requested counts. Matching runs against the session's current page only, so navigate first.`

	DocTextLayerDescription = `Get the extracted text layer of the session's current page.

**When to use:** Debugging why a field value did not match, or feeding page text with positions to downstream analysis.

**Why it's useful:** Returns every text fragment with its normalized position and size, exactly the data the field matcher works from.

**Examples:**
• Matching diagnosis: "List the fragments on page 3 to see how the amount is tokenized"
• Position-aware extraction: "Get the text layer to find column boundaries"

**Best practices:** Fragments are normalized to page dimensions (0..1), so multiply by the canvas size for pixel positions.`

	DocValidateFileDescription = `Verify PDF file integrity and readability before opening a session.

**When to use:** Before doc_open in automated workflows, especially when handling user uploads or files of unknown provenance.

**Why it's useful:** Prevents wasted sessions on corrupted files, reports page counts for valid documents, and explains why invalid ones were rejected.

**Examples:**
• Upload gate: "Validate uploaded contract.pdf before starting a review session"
• Batch safety: "Validate all PDFs in /invoices/ before bulk processing"

**Best practices:** Validation failures come back as a normal result with a message, not as a protocol error, so batch callers can continue.`

	DocCloseDescription = `Close a viewer session and release its document handle.

**When to use:** When the caller is done with a document, or before reopening the same file fresh.

**Why it's useful:** Document handles hold renderer resources. Closing promptly keeps long-running servers lean.

**Best practices:** Closing an unknown or already-closed session returns an error, not a crash. Sessions are also released on server shutdown.`

	DocServerInfoDescription = `Get server information, zoom levels, rendering engine, and usage guidance.

**When to use:** Service discovery, health checks, or when a caller needs the configured document directory and limits.

**Why it's useful:** Reports the active rendering engine, the zoom table, the maximum file size, and the number of open sessions in one call.

**Best practices:** Call this first when connecting to an unfamiliar server to learn its document directory and limits.`
)

package outbox

const progressRecordedSchema = `{
  "type": "object",
  "title": "ProgressRecorded",
  "properties": {
    "record_id": {"type": "string"},
    "user_id": {"type": "string"},
    "kind": {"type": "string", "enum": ["workout", "habit", "stretch", "steps", "language-activity"]},
    "occurred_at": {"type": "string", "format": "date-time"},
    "created_at": {"type": "string", "format": "date-time"},
    "steps_total": {"type": "integer"}
  },
  "required": ["record_id", "user_id", "kind", "occurred_at", "created_at"],
  "additionalProperties": false
}`

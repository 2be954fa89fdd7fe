package outbox

const dayRecordedSchema = `{
  "type": "object",
  "title": "ActivityDayRecorded",
  "properties": {
    "user_id": {"type": "integer"},
    "date": {"type": "string", "format": "date"},
    "steps": {"type": "integer", "minimum": 0},
    "distance_km": {"type": "number", "minimum": 0},
    "calories": {"type": "number", "minimum": 0},
    "active_minutes": {"type": "number", "minimum": 0},
    "recorded_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "date", "steps", "distance_km", "calories", "active_minutes", "recorded_at"],
  "additionalProperties": false
}`

const totalsSchema = `{
    "type": "object",
    "properties": {
      "total_steps": {"type": "integer"},
      "total_distance_km": {"type": "number"},
      "total_calories": {"type": "number"},
      "total_active_minutes": {"type": "number"}
    },
    "required": ["total_steps", "total_distance_km", "total_calories", "total_active_minutes"]
  }`

const monthCompactedSchema = `{
  "type": "object",
  "title": "ActivityMonthCompacted",
  "properties": {
    "user_id": {"type": "integer"},
    "year": {"type": "integer"},
    "month": {"type": "integer", "minimum": 1, "maximum": 12},
    "totals": ` + totalsSchema + `,
    "daily_records_deleted": {"type": "integer"},
    "old_monthly_records_deleted": {"type": "integer"},
    "compacted_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "year", "month", "totals", "daily_records_deleted", "old_monthly_records_deleted", "compacted_at"],
  "additionalProperties": false
}`

const yearCompactedSchema = `{
  "type": "object",
  "title": "ActivityYearCompacted",
  "properties": {
    "user_id": {"type": "integer"},
    "year": {"type": "integer"},
    "totals": ` + totalsSchema + `,
    "monthly_records_deleted": {"type": "integer"},
    "compacted_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "year", "totals", "monthly_records_deleted", "compacted_at"],
  "additionalProperties": false
}`

package i18n

// Message keys.
const (
	ErrBadRequest       = "error.bad_request"
	ErrValidation       = "error.validation"
	ErrUnauthorized     = "error.unauthorized"
	ErrForbidden        = "error.forbidden"
	ErrNotFound         = "error.not_found"
	ErrConflict         = "error.conflict"
	ErrTooLarge         = "error.too_large"
	ErrUnsupportedMedia = "error.unsupported_media"
	ErrInternal         = "error.internal"
	ErrLLMUnavailable   = "error.llm_unavailable"
	ErrLLMFailed        = "error.llm_failed"
	ErrNotLearning      = "error.not_learning"
	ErrLevelInUse       = "error.level_in_use"

	AuthInvalidCredentials = "auth.invalid_credentials"
	AuthEmailTaken         = "auth.email_taken"

	FieldRequired     = "field.required"
	FieldMinLength    = "field.min_length"
	FieldMaxLength    = "field.max_length"
	FieldType         = "field.type"
	FieldEnum         = "field.enum"
	FieldUnknown      = "field.unknown"
	FieldFormat       = "field.format"
	FieldPattern      = "field.pattern"
	FieldRange        = "field.range"
	FieldMinItems     = "field.min_items"
	FieldInvalid      = "field.invalid"
	FieldNoCorrect    = "field.no_correct_answer"
	FieldUnknownLevel = "field.unknown_level"
)

var catalog = map[string]map[string]string{
	"uk": {
		ErrBadRequest:       "Некоректний запит.",
		ErrValidation:       "Перевірте правильність заповнення полів.",
		ErrUnauthorized:     "Потрібно увійти в систему.",
		ErrForbidden:        "Недостатньо прав для цієї дії.",
		ErrNotFound:         "Не знайдено.",
		ErrConflict:         "Запис із такими даними вже існує.",
		ErrTooLarge:         "Файл завеликий (максимум %d МБ).",
		ErrUnsupportedMedia: "Непідтримуваний формат зображення.",
		ErrInternal:         "Сталася помилка. Спробуйте ще раз.",
		ErrLLMUnavailable:   "Генерація підказок недоступна.",
		ErrLLMFailed:        "Не вдалося згенерувати пропозиції. Спробуйте ще раз.",
		ErrNotLearning:      "Ви не вивчаєте цю книгу.",
		ErrLevelInUse:       "Рівень використовується в питаннях.",

		AuthInvalidCredentials: "Невірна електронна пошта або пароль.",
		AuthEmailTaken:         "Користувач з такою поштою вже зареєстрований.",

		FieldRequired:     "Обов'язкове поле.",
		FieldMinLength:    "Мінімальна довжина: %d.",
		FieldMaxLength:    "Максимальна довжина: %d.",
		FieldType:         "Неправильний тип значення.",
		FieldEnum:         "Недопустиме значення.",
		FieldUnknown:      "Невідоме поле.",
		FieldFormat:       "Неправильний формат.",
		FieldPattern:      "Значення не відповідає шаблону.",
		FieldRange:        "Значення поза допустимими межами.",
		FieldMinItems:     "Потрібно щонайменше %d елемент(ів).",
		FieldInvalid:      "Недійсне значення.",
		FieldNoCorrect:    "Потрібна хоча б одна правильна відповідь.",
		FieldUnknownLevel: "Невідомий рівень.",
	},
	"en": {
		ErrBadRequest:       "Malformed request.",
		ErrValidation:       "Please check the highlighted fields.",
		ErrUnauthorized:     "Please sign in.",
		ErrForbidden:        "You are not allowed to do that.",
		ErrNotFound:         "Not found.",
		ErrConflict:         "A record with these values already exists.",
		ErrTooLarge:         "File is too large (max %d MB).",
		ErrUnsupportedMedia: "Unsupported image format.",
		ErrInternal:         "Something went wrong. Please try again.",
		ErrLLMUnavailable:   "Suggestions are not available.",
		ErrLLMFailed:        "Could not generate suggestions. Please try again.",
		ErrNotLearning:      "You are not learning this book.",
		ErrLevelInUse:       "The level is used by questions.",

		AuthInvalidCredentials: "Invalid email or password.",
		AuthEmailTaken:         "This email is already registered.",

		FieldRequired:     "Required.",
		FieldMinLength:    "Must be at least %d characters.",
		FieldMaxLength:    "Must be at most %d characters.",
		FieldType:         "Wrong value type.",
		FieldEnum:         "Value is not allowed.",
		FieldUnknown:      "Unknown field.",
		FieldFormat:       "Invalid format.",
		FieldPattern:      "Value does not match the expected pattern.",
		FieldRange:        "Value is out of range.",
		FieldMinItems:     "At least %d item(s) required.",
		FieldInvalid:      "Invalid value.",
		FieldNoCorrect:    "At least one answer must be correct.",
		FieldUnknownLevel: "Unknown level.",
	},
}

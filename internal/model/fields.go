package model

// Canonical field names the pipeline reads or guarantees to produce.
const (
	FieldTransNum        = "trans_num"
	FieldID              = "id"
	FieldCCNum           = "cc_num"
	FieldAmount          = "amt"
	FieldUnixTime        = "unix_time"
	FieldTransDate       = "trans_date_trans_time"
	FieldMerchant        = "merchant"
	FieldCategory        = "category"
	FieldGender          = "gender"
	FieldGenderM         = "gender_M"
	FieldState           = "state"
	FieldDOB             = "dob"
	FieldAge             = "age"
	FieldHour            = "hour"
	FieldTransactionHour = "transaction_hour"
	FieldYear            = "year"
	FieldMonth           = "month"
	FieldDay             = "day"
	FieldFirst           = "first"
	FieldLast            = "last"
)

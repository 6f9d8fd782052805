package endpoint

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ariebrainware/patient-intake/logger"
	"github.com/ariebrainware/patient-intake/middleware"
	"github.com/ariebrainware/patient-intake/model"
	"github.com/ariebrainware/patient-intake/repository"
	"github.com/ariebrainware/patient-intake/util"
	"github.com/ariebrainware/patient-intake/validation"
	"github.com/gin-gonic/gin"
)

const (
	submitSuccessMsg    = "✅ Data submitted successfully!"
	validationFailedMsg = "Validation failed"
	databaseErrorMsg    = "❌ Database error!"
)

var errNotAnObject = errors.New("request body is not a JSON object")

// SubmissionRequest documents the accepted payload.
type SubmissionRequest struct {
	Name   string `json:"name" example:"Asha"`
	Rollno int64  `json:"rollno" example:"101"`
	City   string `json:"city" example:"Pune"`
	Info   string `json:"info,omitempty" example:"routine checkup"`
}

// decodeObject reads the body as a single JSON object. Numbers are kept as
// json.Number so rollno can be range-checked without float rounding.
func decodeObject(body io.Reader) (map[string]interface{}, error) {
	if body == nil {
		return nil, errNotAnObject
	}
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, errNotAnObject
	}
	if payload == nil {
		// literal null
		return nil, errNotAnObject
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errNotAnObject
	}
	return payload, nil
}

func gatewayFor(c *gin.Context) repository.PatientGateway {
	return repository.NewPatientStore(middleware.GetDB(c))
}

// SubmitPatientData godoc
// @Summary      Submit patient data
// @Description  Validate a patient intake form and store it as a new record
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body SubmissionRequest true "Patient intake form"
// @Success      200 {object} util.APIResponse "Data submitted"
// @Failure      400 {object} util.APIResponse{errors=[]validation.FieldError} "Validation failed"
// @Failure      403 {object} util.APIResponse "Invalid API key"
// @Failure      429 {object} util.APIResponse "Too many requests"
// @Failure      500 {object} util.APIResponse "Database error"
// @Router       /submit [post]
func SubmitPatientData(rules validation.Rules) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := decodeObject(c.Request.Body)
		if err != nil {
			util.CallUserError(c, util.APIErrorParams{
				Msg:    validationFailedMsg,
				Err:    err,
				Errors: validation.Errors{{Field: "body", Message: "must be a JSON object"}},
			})
			return
		}

		submission, err := rules.Validate(payload)
		if err != nil {
			var fieldErrs validation.Errors
			if !errors.As(err, &fieldErrs) {
				fieldErrs = validation.Errors{{Field: "body", Message: err.Error()}}
			}
			util.CallUserError(c, util.APIErrorParams{
				Msg:    validationFailedMsg,
				Err:    err,
				Errors: fieldErrs,
			})
			return
		}

		stored, err := gatewayFor(c).Insert(c.Request.Context(), submission.Patient())
		if err != nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: databaseErrorMsg,
				Err: err,
			})
			return
		}

		logger.FromContext(c.Request.Context()).Info().
			Uint("patient_id", stored.ID).
			Msg("patient record stored")
		util.CallSuccessOK(c, util.APISuccessParams{Msg: submitSuccessMsg})
	}
}

// ListPatientData godoc
// @Summary      List patient data
// @Description  Return every stored patient record as a JSON array
// @Tags         Patient
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200 {array}  model.Patient "Stored records"
// @Failure      403 {object} util.APIResponse "Invalid API key"
// @Failure      429 {object} util.APIResponse "Too many requests"
// @Failure      500 {object} util.APIResponse "Database error"
// @Router       /data [get]
func ListPatientData() gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := gatewayFor(c).FetchAll(c.Request.Context())
		if err != nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: databaseErrorMsg,
				Err: err,
			})
			return
		}
		if records == nil {
			records = []model.Patient{}
		}
		c.JSON(http.StatusOK, records)
	}
}

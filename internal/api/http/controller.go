package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/onlydustxyz/kiln-indexer/internal/app"
	"github.com/onlydustxyz/kiln-indexer/internal/core"
)

// @title      		kiln-indexer
// @version         0.0.1
// @description     Indexes an Ethereum chain into Postgres and serves NFT eligibility.

// @host      		localhost
// @BasePath  		/api/v1
// @schemes 		http

var basePath = "/api/v1"

var _ QueryController = (*Controller)(nil)

type Controller struct {
	svc app.QueryService
}

func NewController(svc app.QueryService) *Controller {
	return &Controller{svc: svc}
}

func paramErr(ctx *gin.Context, param string, err error) {
	ctx.IndentedJSON(http.StatusBadRequest, gin.H{"param": param, "error": err.Error()})
}

func internalErr(ctx *gin.Context, err error) {
	log.Error().Str("path", ctx.FullPath()).Err(err).Msg("internal server error")
	ctx.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func getOffsetLimit(ctx *gin.Context) (int, int, error) {
	o, err := strconv.ParseInt(ctx.DefaultQuery("offset", "0"), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	l, err := strconv.ParseInt(ctx.DefaultQuery("limit", "100"), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return int(o), int(l), nil
}

// GetStatistics godoc
//	@Summary		sync statistics
//	@Description	Returns the last synced heights and row counts
//	@Tags			statistics
//	@Accept			json
//	@Produce		json
//	@Success		200		{object}	core.Statistics
//	@Router			/statistics [get]
func (c *Controller) GetStatistics(ctx *gin.Context) {
	ret, err := c.svc.GetStatistics(ctx)
	if err != nil {
		internalErr(ctx, err)
		return
	}
	ctx.IndentedJSON(http.StatusOK, ret)
}

// GetSlots godoc
//	@Summary		consensus slots
//	@Description	Returns filtered slots
//	@Tags			slot
//	@Accept			json
//	@Produce		json
//  @Param   		height	     		query   int 	false	"slot height"
//  @Param   		spec	     		query   string 	false	"chain spec name"
//  @Param   		offset	     		query   int 	false	"offset"
//  @Param   		limit	     		query   int 	false	"limit"
//	@Success		200		{array}		core.Slot
//	@Router			/slots [get]
func (c *Controller) GetSlots(ctx *gin.Context) {
	var filter core.SlotFilter

	if err := ctx.ShouldBindQuery(&filter); err != nil {
		paramErr(ctx, "slot_filter", err)
		return
	}

	offset, limit, err := getOffsetLimit(ctx)
	if err != nil {
		paramErr(ctx, "offset_limit", err)
		return
	}

	ret, err := c.svc.GetSlots(ctx, &filter, offset, limit)
	if err != nil {
		internalErr(ctx, err)
		return
	}
	ctx.IndentedJSON(http.StatusOK, ret)
}

// GetBlocks godoc
//	@Summary		execution blocks
//	@Description	Returns filtered blocks
//	@Tags			block
//	@Accept			json
//	@Produce		json
//  @Param   		height	     		query   int 	false	"block height"
//  @Param   		with_transactions	query	bool  	false	"include transactions"
//  @Param   		offset	     		query   int 	false	"offset"
//  @Param   		limit	     		query   int 	false	"limit"
//	@Success		200		{array}		core.Block
//	@Router			/blocks [get]
func (c *Controller) GetBlocks(ctx *gin.Context) {
	var filter core.BlockFilter

	if err := ctx.ShouldBindQuery(&filter); err != nil {
		paramErr(ctx, "block_filter", err)
		return
	}

	offset, limit, err := getOffsetLimit(ctx)
	if err != nil {
		paramErr(ctx, "offset_limit", err)
		return
	}

	ret, err := c.svc.GetBlocks(ctx, &filter, offset, limit)
	if err != nil {
		internalErr(ctx, err)
		return
	}
	ctx.IndentedJSON(http.StatusOK, ret)
}

// GetTransactions godoc
//	@Summary		transactions
//	@Description	Returns filtered transactions
//	@Tags			transaction
//	@Accept			json
//	@Produce		json
//  @Param   		block_height 		query   int 	false	"block height"
//  @Param   		from_address		query	string 	false	"sender address"
//  @Param   		to_address			query	string 	false	"recipient address"
//  @Param   		offset	     		query   int 	false	"offset"
//  @Param   		limit	     		query   int 	false	"limit"
//	@Success		200		{array}		core.Transaction
//	@Router			/transactions [get]
func (c *Controller) GetTransactions(ctx *gin.Context) {
	var filter core.TransactionFilter

	if err := ctx.ShouldBindQuery(&filter); err != nil {
		paramErr(ctx, "tx_filter", err)
		return
	}

	offset, limit, err := getOffsetLimit(ctx)
	if err != nil {
		paramErr(ctx, "offset_limit", err)
		return
	}

	ret, err := c.svc.GetTransactions(ctx, &filter, offset, limit)
	if err != nil {
		internalErr(ctx, err)
		return
	}
	ctx.IndentedJSON(http.StatusOK, ret)
}

// GetAddressNfts godoc
//	@Summary		NFT eligibility
//	@Description	Returns the packed list of NFTs this address is eligible to mint
//	@Tags			nft
//	@Accept			json
//	@Produce		json
//  @Param   		address				path	string 	true	"account address"
//	@Success		200		{object}	core.PackedNftTypes
//	@Router			/address/{address}/nfts [get]
func (c *Controller) GetAddressNfts(ctx *gin.Context) {
	addr := strings.ToLower(ctx.Param("address"))

	if !common.IsHexAddress(addr) {
		paramErr(ctx, "address", errors.Errorf("'%s' is not a hex address", addr))
		return
	}

	ret, err := c.svc.GetAddressNfts(ctx, addr)
	if err != nil {
		internalErr(ctx, err)
		return
	}
	ctx.IndentedJSON(http.StatusOK, ret)
}
